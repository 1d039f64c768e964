// Copyright 2024 Kelvin Clement Mwinuka
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/echovault/sugarclient/internal/bench"
	"github.com/echovault/sugarclient/internal/config"
	"github.com/echovault/sugarclient/sugarclient"
	"github.com/peterh/liner"
)

const prompt = "sugardb> "

func main() {
	conf, err := config.GetConfig()
	if err != nil {
		log.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cancelCh := make(chan os.Signal, 1)
	signal.Notify(cancelCh, syscall.SIGINT, syscall.SIGTERM, os.Interrupt)
	go func() {
		<-cancelCh
		cancel()
	}()

	client, err := sugarclient.NewClient(
		sugarclient.WithContext(ctx),
		sugarclient.WithConfig(conf),
		sugarclient.WithLogger(log.New(os.Stderr, "", log.LstdFlags)),
	)
	if err != nil {
		log.Fatal(err)
	}
	defer func() {
		_ = client.Close()
	}()

	switch {
	case conf.Benchmark != "":
		commands, err := bench.ParseCommands(conf.Benchmark)
		if err != nil {
			log.Fatal(err)
		}
		results, err := bench.Run(ctx, client, bench.Options{
			Commands:    commands,
			Requests:    conf.BenchmarkRequests,
			Concurrency: conf.BenchmarkClients,
			Rate:        conf.BenchmarkRate,
		})
		if err != nil {
			log.Fatal(err)
		}
		if err = bench.Print(os.Stdout, results); err != nil {
			log.Fatal(err)
		}
	case conf.Script != "":
		res, err := client.RunScript(ctx, conf.Script, flag.Args()...)
		if err != nil {
			log.Fatal(err)
		}
		fmt.Println(formatValue(res))
	case flag.NArg() > 0:
		out, err := execute(ctx, client, flag.Args())
		if err != nil {
			log.Fatal(err)
		}
		fmt.Println(out)
	default:
		repl(ctx, client, conf.Address)
	}
}

// execute runs one command and renders its reply.
func execute(ctx context.Context, client *sugarclient.Client, args []string) (string, error) {
	cmdArgs := make([][]byte, len(args)-1)
	for i, arg := range args[1:] {
		cmdArgs[i] = []byte(arg)
	}

	if strings.EqualFold(args[0], "hgetall") {
		res, err := client.Enqueue(args[0], sugarclient.HashType, cmdArgs...).Wait(ctx)
		if err != nil {
			return formatError(err)
		}
		return formatHash(res.Hash), nil
	}

	res, err := client.Enqueue(args[0], sugarclient.Scalar, cmdArgs...).Wait(ctx)
	if err != nil {
		return formatError(err)
	}
	return formatReply(res.Reply), nil
}

// formatError renders server errors as replies and passes every other error on.
func formatError(err error) (string, error) {
	var serverErr *sugarclient.ServerError
	if errors.As(err, &serverErr) {
		return fmt.Sprintf("(error) %s", serverErr.Msg), nil
	}
	return "", err
}

func repl(ctx context.Context, client *sugarclient.Client, address string) {
	line := liner.NewLiner()
	defer func() {
		_ = line.Close()
	}()
	line.SetCtrlCAborts(true)

	fmt.Printf("sugarclient connecting to %s. Type 'quit' to exit.\n", address)

	for ctx.Err() == nil {
		input, err := line.Prompt(prompt)
		if err != nil {
			if errors.Is(err, liner.ErrPromptAborted) || errors.Is(err, io.EOF) {
				return
			}
			log.Printf("read input: %v", err)
			return
		}

		args, err := splitArgs(input)
		if err != nil {
			fmt.Printf("(error) %v\n", err)
			continue
		}
		if len(args) == 0 {
			continue
		}
		line.AppendHistory(input)

		if strings.EqualFold(args[0], "quit") || strings.EqualFold(args[0], "exit") {
			return
		}

		out, err := execute(ctx, client, args)
		if err != nil {
			fmt.Printf("(error) %v\n", err)
			continue
		}
		fmt.Println(out)
	}
}
