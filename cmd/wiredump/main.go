// wiredump decodes hex-encoded wire structures and prints their derived
// hashes and a short summary.
//
//	wiredump -type tx 0100...
//	cat block.hex | wiredump -type block
package main

import (
	"encoding/hex"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"lotus.dev/wire/avalanche"
	"lotus.dev/wire/consensus"
)

func hexDecodeStrict(s string) ([]byte, error) {
	cleaned := strings.Join(strings.Fields(s), "")
	return hex.DecodeString(cleaned)
}

func readInput(args []string) ([]byte, error) {
	if len(args) > 0 {
		return hexDecodeStrict(strings.Join(args, ""))
	}
	raw, err := io.ReadAll(os.Stdin)
	if err != nil {
		return nil, fmt.Errorf("read stdin: %w", err)
	}
	return hexDecodeStrict(string(raw))
}

func dumpTx(b []byte) error {
	tx, err := consensus.ParseTxBytes(b)
	if err != nil {
		return err
	}
	fmt.Printf("txhash    %s\n", consensus.TxHash(tx))
	fmt.Printf("txid      %s\n", consensus.TxID(tx))
	fmt.Printf("version   %d\n", tx.Version)
	fmt.Printf("inputs    %d\n", len(tx.Inputs))
	fmt.Printf("outputs   %d\n", len(tx.Outputs))
	fmt.Printf("locktime  %d\n", tx.LockTime)
	fmt.Printf("size      %d\n", tx.BillableSize())
	return nil
}

func dumpHeader(h consensus.BlockHeader) {
	hash := consensus.HeaderHash(h)
	fmt.Printf("hash      %s\n", hash)
	fmt.Printf("prev      %s\n", h.PrevBlock)
	fmt.Printf("height    %d\n", h.Height)
	fmt.Printf("time      %d\n", h.Time)
	fmt.Printf("bits      %08x\n", h.Bits)
	fmt.Printf("merkle    %s\n", h.MerkleRoot)
	fmt.Printf("pow       %v\n", consensus.CheckProofOfWork(hash, h.Bits))
}

func dumpBlock(b []byte) error {
	blk, err := consensus.ParseBlockBytes(b)
	if err != nil {
		return err
	}
	dumpHeader(blk.Header)
	fmt.Printf("txs       %d\n", len(blk.Txs))
	fmt.Printf("metadata  %d\n", len(blk.Metadata))
	root := consensus.BlockMerkleRoot(blk)
	fmt.Printf("computed  %s\n", root)
	if root != blk.Header.MerkleRoot {
		fmt.Printf("warning   merkle root does not match header\n")
	}
	return nil
}

func dumpProof(b []byte) error {
	p, err := avalanche.ParseProofBytes(b)
	if err != nil {
		return err
	}
	fmt.Printf("proofid   %s\n", p.ID())
	fmt.Printf("limited   %s\n", p.LimitedID())
	fmt.Printf("sequence  %d\n", p.Sequence)
	fmt.Printf("expires   %d\n", p.Expiration)
	fmt.Printf("stakes    %d\n", len(p.Stakes))
	return nil
}

func dumpLegacyProof(b []byte) error {
	p, err := avalanche.ParseLegacyProofBytes(b)
	if err != nil {
		return err
	}
	fmt.Printf("proofid   %s\n", p.ID())
	fmt.Printf("limited   %s\n", p.LimitedID())
	fmt.Printf("sequence  %d\n", p.Sequence)
	fmt.Printf("expires   %d\n", p.Expiration)
	fmt.Printf("stakes    %d\n", len(p.Stakes))
	return nil
}

func dumpDelegation(b []byte) error {
	d, err := avalanche.ParseDelegationBytes(b)
	if err != nil {
		return err
	}
	fmt.Printf("id        %s\n", d.ID())
	fmt.Printf("proofid   %s\n", d.ProofID())
	fmt.Printf("limited   %s\n", d.LimitedProofID)
	fmt.Printf("levels    %d\n", len(d.Levels))
	return nil
}

func run(kind string, b []byte) error {
	switch kind {
	case "tx":
		return dumpTx(b)
	case "header":
		h, err := consensus.ParseBlockHeaderBytes(b)
		if err != nil {
			return err
		}
		dumpHeader(h)
		return nil
	case "block":
		return dumpBlock(b)
	case "proof":
		return dumpProof(b)
	case "legacyproof":
		return dumpLegacyProof(b)
	case "delegation":
		return dumpDelegation(b)
	default:
		return fmt.Errorf("unknown type %q", kind)
	}
}

func main() {
	kind := flag.String("type", "tx", "structure to decode: tx|header|block|proof|legacyproof|delegation")
	flag.Parse()

	b, err := readInput(flag.Args())
	if err != nil {
		slog.Error("bad input", "err", err)
		os.Exit(1)
	}
	if err := run(*kind, b); err != nil {
		slog.Error("decode failed", "type", *kind, "err", err)
		os.Exit(1)
	}
}
