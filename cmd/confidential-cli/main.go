// confidential-cli is the operational tool of the confidential asset
// module: it generates key pairs, builds and inspects the precomputed
// kangaroo tables and decrypts single ciphertexts with them.
package main

import (
	"fmt"
	"os"

	"github.com/vocdoni/confidential-asset/crypto/kangaroo"
	"github.com/vocdoni/confidential-asset/crypto/twistedelgamal"
	"github.com/vocdoni/confidential-asset/log"
	"github.com/vocdoni/confidential-asset/types"
)

func main() {
	cfg, args, err := loadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
		os.Exit(1)
	}
	log.Init(cfg.Log.Level, cfg.Log.Output)
	if err := validateConfig(cfg); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}
	if len(args) == 0 {
		usage()
	}

	switch args[0] {
	case "keygen":
		err = keygen(cfg)
	case "tables":
		if len(args) < 2 {
			usage()
		}
		switch args[1] {
		case "generate":
			err = tablesGenerate(cfg)
		case "info":
			err = tablesInfo(cfg)
		default:
			usage()
		}
	case "decrypt":
		err = decrypt(cfg)
	default:
		usage()
	}
	if err != nil {
		log.Fatalf("%s failed: %v", args[0], err)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: confidential-cli [flags] keygen | tables generate | tables info | decrypt")
	os.Exit(2)
}

func keygen(cfg *Config) error {
	var dk *twistedelgamal.DecryptionKey
	var err error
	if cfg.Keys.Seed != "" {
		seed, err := types.HexStringToHexBytes(cfg.Keys.Seed)
		if err != nil {
			return err
		}
		dk, err = twistedelgamal.DecryptionKeyFromSeed(seed, cfg.Keys.Index)
		if err != nil {
			return err
		}
	} else {
		dk, err = twistedelgamal.NewDecryptionKey()
		if err != nil {
			return err
		}
	}
	ek, err := dk.EncryptionKey()
	if err != nil {
		return err
	}
	sk := types.HexBytes(dk.Bytes())
	pk := types.HexBytes(ek.Bytes())
	fmt.Printf("decryption key: %s\n", sk.String())
	fmt.Printf("encryption key: %s\n", pk.String())
	return nil
}

func tablesGenerate(cfg *Config) error {
	if cfg.Tables.File == "" {
		return fmt.Errorf("missing --tables.file")
	}
	p, err := kangaroo.DefaultGenParams(uint8(cfg.Tables.Bits))
	if err != nil {
		return err
	}
	log.Infow("generating kangaroo table", "bits", p.Bits, "window", p.Window, "meanJump", p.MeanJump)
	t, err := kangaroo.GenerateTable(p)
	if err != nil {
		return err
	}
	if err := t.SaveFile(cfg.Tables.File); err != nil {
		return err
	}
	log.Infow("kangaroo table written", "path", cfg.Tables.File, "entries", len(t.Entries))
	return nil
}

func tablesInfo(cfg *Config) error {
	if cfg.Tables.File == "" {
		return fmt.Errorf("missing --tables.file")
	}
	t, err := kangaroo.LoadFile(cfg.Tables.File)
	if err != nil {
		return err
	}
	fmt.Printf("bits: %d\nwindow: %d\nmean jump: %d\njump set: %d\nentries: %d\n",
		t.Bits, t.Window, t.MeanJump, len(t.SLog), len(t.Entries))
	return nil
}

func decrypt(cfg *Config) error {
	if cfg.Keys.Key == "" || cfg.Keys.Ciphertext == "" {
		return fmt.Errorf("missing --keys.key or --keys.ciphertext")
	}
	if len(cfg.Tables.Files) == 0 {
		return fmt.Errorf("missing --tables.files")
	}
	for _, path := range cfg.Tables.Files {
		t, err := kangaroo.LoadFile(path)
		if err != nil {
			return err
		}
		if err := kangaroo.Register(t); err != nil {
			return err
		}
	}
	keyBytes, err := types.HexStringToHexBytes(cfg.Keys.Key)
	if err != nil {
		return err
	}
	dk, err := twistedelgamal.DecryptionKeyFromBytes(keyBytes)
	if err != nil {
		return err
	}
	ctBytes, err := types.HexStringToHexBytes(cfg.Keys.Ciphertext)
	if err != nil {
		return err
	}
	ct := twistedelgamal.NewCiphertext()
	if err := ct.Deserialize(ctBytes); err != nil {
		return err
	}
	v, err := ct.Decrypt(dk)
	if err != nil {
		return err
	}
	fmt.Printf("amount: %d\n", v)
	return nil
}
