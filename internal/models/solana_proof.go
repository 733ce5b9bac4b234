package models

type SolanaProof struct {
	Signature Bytes  `json:"signature"`
	PublicKey Bytes  `json:"public_key"`
	Deadline  int64  `json:"deadline"`
	Address   string `json:"address"`
	Nonce     string `json:"nonce"`
}
