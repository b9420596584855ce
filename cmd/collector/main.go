// Command collector prepares Deletreo and Personajes bundles and uploads them through the proxy.
//
//	collector deletreo init -bundle deletreo.json [-groups 2] [-flat]
//	collector deletreo quickload -in words.tsv -group 0 -bundle deletreo.json
//	collector deletreo push -bundle deletreo.json -bucket config-data -name deletreo.json
//	collector personajes pack -dir ./personajes -out PersonajesBundle.zip
//	collector personajes unpack -in PersonajesBundle.zip -dir ./personajes
//	collector access
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/broadstream/qgem/biz/model/api"
	"github.com/broadstream/qgem/pkg/client"
)

const defaultServer = "http://localhost:8080"

var errUsage = errors.New("usage: collector deletreo init|quickload|push | personajes pack|unpack | access")

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		log.Fatal(err)
	}
}

func run(args []string, out io.Writer) error {
	if len(args) < 1 {
		return errUsage
	}
	switch args[0] {
	case "deletreo":
		if len(args) < 2 {
			return errUsage
		}
		switch args[1] {
		case "init":
			return deletreoInit(args[2:], out)
		case "quickload":
			return deletreoQuickLoad(args[2:], out)
		case "push":
			return deletreoPush(args[2:], out, newClient)
		}
	case "personajes":
		if len(args) < 2 {
			return errUsage
		}
		switch args[1] {
		case "pack":
			return personajesPack(args[2:], out)
		case "unpack":
			return personajesUnpack(args[2:], out)
		}
	case "access":
		return accessKey(args[1:], out, newClient)
	}
	return errUsage
}

// proxy is what the uploading subcommands need from the REST client.
type proxy interface {
	SaveJSON(ctx context.Context, bucket, key string, body []byte) (*api.SaveResponse, error)
	AccessKey(ctx context.Context) (*api.AccessKeyResponse, error)
}

type dialer func(server string) (proxy, error)

func newClient(server string) (proxy, error) {
	c, err := client.New(server)
	if err != nil {
		return nil, err
	}
	return c, nil
}

func accessKey(args []string, out io.Writer, dial dialer) error {
	fs := flag.NewFlagSet("access", flag.ContinueOnError)
	server := fs.String("server", defaultServer, "storage proxy base URL")
	if err := fs.Parse(args); err != nil {
		return err
	}
	c, err := dial(*server)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	res, err := c.AccessKey(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "issued:  %s\nexpires: %s\nrenew:   %s\n", res.IssuedAt, res.ExpiresAt, res.RenewAt)
	if res.Token != "" {
		fmt.Fprintf(out, "token:   %s\n", res.Token)
	}
	return nil
}
