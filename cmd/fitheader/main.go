// Copyright 2015 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Command fitheader prints a .fit file's leading header and, optionally,
// verifies every sub-file's CRC-16 without decoding its records.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/go-fitdecode/fitdecode/fit"
)

func main() {
	var (
		flagInput  = flag.String("i", "activity.fit", "input .fit `file`")
		flagVerify = flag.Bool("verify", false, "verify every sub-file's CRC-16")
		flagFinger = flag.Bool("fingerprint", false, "print a content fingerprint")
	)
	flag.Parse()
	if flag.NArg() > 0 {
		flag.Usage()
		os.Exit(1)
	}

	data, err := os.ReadFile(*flagInput)
	if err != nil {
		log.Fatal(err)
	}
	d := fit.New(data)

	hdr, err := d.ReadFileHeader()
	if err != nil {
		log.Fatal(err)
	}
	fmt.Printf("header_size: %d\n", hdr.HeaderSize)
	fmt.Printf("protocol_version: %d.%d\n", hdr.ProtocolVersionMajor(), hdr.ProtocolVersionMinor())
	fmt.Printf("profile_version: %d\n", hdr.ProfileVersion)
	fmt.Printf("data_size: %d\n", hdr.DataSize)
	fmt.Printf("data_type: %s\n", hdr.DataType)
	fmt.Printf("total_size: %d\n", hdr.FileTotalSize())

	if *flagVerify {
		fmt.Printf("crc_ok: %v\n", d.CheckIntegrity())
	}
	if *flagFinger {
		fmt.Printf("fingerprint: %x\n", fit.Fingerprint(data))
	}
}
