// Copyright (c) Qualcomm Technologies, Inc. and/or its subsidiaries.
// SPDX-License-Identifier: BSD-3-Clause-Clear

// fakeregistry serves an in-memory device registry for trying regctl out
// and for end to end tests.
package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alexflint/go-arg"
	"gopkg.in/yaml.v3"

	"github.com/eclipse-hono/regctl/cli/api"
	"github.com/eclipse-hono/regctl/context"
	"github.com/eclipse-hono/regctl/fakeregistry"
	"github.com/eclipse-hono/regctl/server"
)

type Args struct {
	Port     uint16 `default:"28080" help:"Port to listen on"`
	Host     string `default:"127.0.0.1" help:"Address to listen on"`
	Token    string `help:"Only accept this bearer token, any token is accepted when empty"`
	Seed     string `help:"YAML file with tenants and devices to start with"`
	LogLevel string `arg:"--log-level" help:"debug, info, warning or error"`

	startedCb func(address string)
}

// seedFile is the format of --seed.
type seedFile struct {
	Tenants []struct {
		ID            string `yaml:"id"`
		MessagingType string `yaml:"messaging-type"`
		Devices       []struct {
			ID  string   `yaml:"id"`
			Via []string `yaml:"via"`
		} `yaml:"devices"`
	} `yaml:"tenants"`
}

func loadSeed(reg *fakeregistry.Registry, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("unable to read seed file: %w", err)
	}
	var seed seedFile
	if err := yaml.Unmarshal(data, &seed); err != nil {
		return fmt.Errorf("unable to parse seed file: %w", err)
	}
	for _, t := range seed.Tenants {
		reg.AddTenant(t.ID, api.MessagingType(t.MessagingType))
		for _, d := range t.Devices {
			reg.AddDevice(t.ID, api.Device{ID: d.ID, Via: d.Via})
		}
	}
	return nil
}

func (a Args) Run(ctx context.Context) error {
	reg := fakeregistry.New(a.Token)
	if a.Seed != "" {
		if err := loadSeed(reg, a.Seed); err != nil {
			return err
		}
	}
	srv := server.NewServer(ctx, reg.Handler(), "fakeregistry", fmt.Sprintf("%s:%d", a.Host, a.Port))

	quitErr := make(chan error, 1)
	srv.Start(quitErr)
	if a.startedCb != nil {
		// Testing code, see main_test.go
		time.Sleep(time.Millisecond * 2)
		a.startedCb(srv.GetAddress())
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGTERM, syscall.SIGINT)

	var err error
	select {
	case err = <-quitErr:
	case <-quit:
	}
	srv.Shutdown(time.Minute)
	return err
}

func main() {
	var args Args
	arg.MustParse(&args)

	log, err := context.InitLogger(args.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: %s\n", err)
		os.Exit(1)
	}
	if err := args.Run(context.CtxWithLog(context.Background(), log)); err != nil {
		log.Error("command failed", "error", err)
		os.Exit(1)
	}
}
