// Copyright 2015 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Command fitdump decodes a .fit file and prints every message it
// contains. Input may be zstd-compressed (sniffed by magic bytes), and
// decode options may be supplied as a YAML config file.
package main

import (
	"bytes"
	"flag"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/klauspost/compress/zstd"
	"gopkg.in/yaml.v3"

	"github.com/go-fitdecode/fitdecode/fit"
)

var zstdMagic = []byte{0x28, 0xB5, 0x2F, 0xFD}

// config mirrors fit.Options for YAML unmarshaling at the CLI boundary;
// package fit itself has no YAML dependency.
type config struct {
	ApplyScaleAndOffset      bool `yaml:"apply_scale_and_offset"`
	ConvertDatetimesToDates  bool `yaml:"convert_datetimes_to_dates"`
	EnableCrcCheck           bool `yaml:"enable_crc_check"`
	ExpandSubFields          bool `yaml:"expand_sub_fields"`
	ExpandComponents         bool `yaml:"expand_components"`
	ConvertTypesToStrings    bool `yaml:"convert_types_to_strings"`
	ApplyDeveloperFieldScale bool `yaml:"apply_developer_field_scale"`
	MergeHeartRate           bool `yaml:"merge_heart_rate"`
	DecodeMode               int  `yaml:"decode_mode"`
	StopOnError              bool `yaml:"stop_on_error"`
}

func main() {
	var (
		flagInput  = flag.String("i", "activity.fit", "input .fit `file`")
		flagConfig = flag.String("config", "", "optional YAML decode-options `file`")
		flagFilter = flag.String("mesg", "", "only print messages with this `name`")
	)
	flag.Parse()
	if flag.NArg() > 0 {
		flag.Usage()
		os.Exit(1)
	}

	opts := fit.DefaultOptions()
	if *flagConfig != "" {
		opts = loadConfig(*flagConfig)
	}

	data, err := os.ReadFile(*flagInput)
	if err != nil {
		log.Fatal(err)
	}
	data, err = maybeDecompress(data)
	if err != nil {
		log.Fatal(err)
	}

	d := fit.New(data)
	_, errs := d.Decode(opts, func(name string, msg fit.Message) {
		if *flagFilter != "" && name != *flagFilter {
			return
		}
		fmt.Printf("%s: %+v\n", name, msg)
	})

	for _, err := range errs {
		fmt.Fprintf(os.Stderr, "decode error: %v\n", err)
	}
	fmt.Fprintf(os.Stderr, "%d messages decoded\n", d.GetNumMessages())
}

func loadConfig(path string) fit.Options {
	raw, err := os.ReadFile(path)
	if err != nil {
		log.Fatal(err)
	}
	var cfg config
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		log.Fatal(err)
	}
	return fit.Options{
		ApplyScaleAndOffset:      cfg.ApplyScaleAndOffset,
		ConvertDatetimesToDates:  cfg.ConvertDatetimesToDates,
		EnableCrcCheck:           cfg.EnableCrcCheck,
		ExpandSubFields:          cfg.ExpandSubFields,
		ExpandComponents:         cfg.ExpandComponents,
		ConvertTypesToStrings:    cfg.ConvertTypesToStrings,
		ApplyDeveloperFieldScale: cfg.ApplyDeveloperFieldScale,
		MergeHeartRate:           cfg.MergeHeartRate,
		DecodeMode:               fit.DecodeMode(cfg.DecodeMode),
		StopOnError:              cfg.StopOnError,
	}
}

func maybeDecompress(data []byte) ([]byte, error) {
	if !bytes.HasPrefix(data, zstdMagic) {
		return data, nil
	}
	dec, err := zstd.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer dec.Close()
	return io.ReadAll(dec)
}
