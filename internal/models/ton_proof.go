package models

import (
	"fmt"
	"strings"
)

type TonNetwork string

const (
	TonMainnet TonNetwork = "-239"
	TonTestnet TonNetwork = "-3"
)

// ParseTonNetwork accepts TON Connect chain ids as well as plain names.
func ParseTonNetwork(s string) (TonNetwork, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case string(TonMainnet), "mainnet":
		return TonMainnet, nil
	case string(TonTestnet), "testnet":
		return TonTestnet, nil
	}
	return "", fmt.Errorf("unknown ton network %q", s)
}

type TonDomain struct {
	LengthBytes uint32 `json:"lengthBytes"`
	Value       string `json:"value"`
}

type TonMessageInfo struct {
	Timestamp int64     `json:"timestamp"`
	Domain    TonDomain `json:"domain"`
	Signature string    `json:"signature"`
	Payload   string    `json:"payload"`
	StateInit string    `json:"state_init"`
}

type TonProof struct {
	Address   string         `json:"address"`
	Network   string         `json:"network"`
	PublicKey string         `json:"public_key"`
	Proof     TonMessageInfo `json:"proof"`
}

type TonProofMessage struct {
	Workchain int32
	Address   []byte
	Timestamp int64
	Domain    TonDomain
	Signature []byte
	Payload   string
	StateInit string
}
