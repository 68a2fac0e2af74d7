// calc-nullifier derives an allocation nullifier from its preimage fields.
// Useful for cross-checking backend and on-chain values during debugging.
package main

import (
	"flag"
	"fmt"
	"os"

	"zkpay-sdk/address"
	"zkpay-sdk/amount"
	"zkpay-sdk/nullifier"
)

func main() {
	var (
		depositHex = flag.String("deposit", "", "deposit ID (bytes32 hex)")
		ownerAddr  = flag.String("owner", "", "owner address (native format)")
		chainID    = flag.Uint("chain", 714, "SLIP-44 chain ID of the deposit")
		tokenID    = flag.Uint("token", 0, "token ID")
		seq        = flag.Uint("seq", 0, "allocation sequence number")
		amountStr  = flag.String("amount", "", "allocation amount (uint256 decimal string)")
	)
	flag.Parse()

	if *depositHex == "" || *ownerAddr == "" || *amountStr == "" {
		flag.Usage()
		os.Exit(2)
	}

	owner, err := address.FromNative(*ownerAddr, uint32(*chainID))
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid owner address: %v\n", err)
		os.Exit(1)
	}

	wire, err := amount.ParseWire(*amountStr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid amount: %v\n", err)
		os.Exit(1)
	}

	depositID := nullifier.DepositIDFromHex(*depositHex)
	n, err := nullifier.Nullifier(depositID, owner, uint32(*chainID), uint16(*tokenID), uint32(*seq), wire)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to derive nullifier: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("=== Nullifier Calculation ===")
	fmt.Printf("Deposit ID: 0x%x\n", depositID)
	fmt.Printf("Owner:      %s\n", owner.Hex())
	fmt.Printf("Chain:      %d\n", *chainID)
	fmt.Printf("Token ID:   %d\n", *tokenID)
	fmt.Printf("Seq:        %d\n", *seq)
	fmt.Printf("Amount:     %s\n", *amountStr)
	fmt.Println()
	fmt.Printf("Nullifier: %s\n", nullifier.Hex(n))
}
