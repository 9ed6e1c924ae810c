/*
Package blockloom writes block trees into a remote hierarchical content store
whose append API accepts at most 100 siblings per children list and three
nesting levels per call.

A Writer turns mixed content (inline runs and blocks) into a plan of bounded
append calls and executes it against a ports.BlockStore, resolving the ids of
parents created by earlier calls as it goes.

# Usage

	package main

	import (
		"context"
		"log"

		"github.com/aretw0/blockloom"
		"github.com/aretw0/blockloom/pkg/adapters/http"
		"github.com/aretw0/blockloom/pkg/domain"
	)

	func main() {
		client := http.NewClient("https://api.example.com", http.WithToken("secret"))
		w := blockloom.New(client)

		content := []domain.FlexibleBlock{
			domain.Text("Hello "),
			domain.Code("world"),
			domain.NewBlock(domain.Divider{}),
		}

		res, err := w.Create(context.Background(), "page-id", content)
		if err != nil {
			log.Fatal(err)
		}
		log.Printf("%d calls, %d blocks", res.Calls, len(res.Created))
	}

# Failures

Transient store failures (rate limits, timeouts, 5xx) are retried with
exponential backoff. Any other failure stops execution: the returned
*ExecutionError names the failing entry, and every entry before it has been
applied remotely. Nothing is rolled back.
*/
package blockloom
