// Copyright 2015 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Command fitserver exposes FIT decoding over HTTP: POST a .fit file's
// bytes and get back its decoded messages as JSON.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/go-fitdecode/fitdecode/fit"
)

func main() {
	var flagAddr = flag.String("addr", ":8088", "listen `address`")
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Post("/decode", decodeHandler(logger))
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	logger.Info("listening", "addr", *flagAddr)
	if err := http.ListenAndServe(*flagAddr, r); err != nil {
		logger.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func decodeHandler(logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		data, err := io.ReadAll(io.LimitReader(req.Body, 64<<20))
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		d := fit.New(data)
		if !d.IsFit() {
			http.Error(w, "not a .fit file", http.StatusUnprocessableEntity)
			return
		}

		messages, errs := d.Decode(fit.DefaultOptions(), nil)
		for _, err := range errs {
			logger.Warn("decode error", "error", err)
		}

		resp := struct {
			Fingerprint string       `json:"fingerprint"`
			NumMessages uint32       `json:"num_messages"`
			Messages    fit.Messages `json:"messages"`
			Errors      []string     `json:"errors,omitempty"`
		}{
			Fingerprint: fmt.Sprintf("%016x", fit.Fingerprint(data)),
			NumMessages: d.GetNumMessages(),
			Messages:    messages,
		}
		for _, err := range errs {
			resp.Errors = append(resp.Errors, err.Error())
		}

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(resp); err != nil {
			logger.Error("encoding response", "error", err)
		}
	}
}
