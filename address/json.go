package address

import "encoding/json"

// wireForm is the JSON shape used by the backend API:
// {"chain_id": 714, "address": "0x" + 64 hex chars}.
type wireForm struct {
	ChainID uint32 `json:"chain_id"`
	Address string `json:"address"`
}

func (a UniversalAddress) MarshalJSON() ([]byte, error) {
	return json.Marshal(wireForm{ChainID: a.ChainID, Address: a.Hex()})
}

func (a *UniversalAddress) UnmarshalJSON(data []byte) error {
	var w wireForm
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	parsed, err := ParseHex(w.Address, w.ChainID)
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}
