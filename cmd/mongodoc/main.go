// Command mongodoc is a small CLI for poking collections through the mapping
// layer: ping the database, count, find, insert and delete documents.
//
// Connection settings come from --uri/--database or, when omitted, from the
// MONGO_DB_CONNECTION_STRING and MONGO_DB_NAME environment variables.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/mongodoc/mongodoc"
	"github.com/mongodoc/mongodoc/pkg/logger"
	"github.com/mongodoc/mongodoc/pkg/metrics"
)

var (
	flagURI         string
	flagDatabase    string
	flagMetricsAddr string
	flagFilter      string
	flagDoc         string

	rootCmd = &cobra.Command{
		Use:   "mongodoc",
		Short: "inspect and edit MongoDB collections through the mongodoc mapping layer",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			logger.Init(os.Getenv("LOG_LEVEL"))
			if flagMetricsAddr != "" {
				reg := prometheus.NewRegistry()
				metrics.RegisterCollectors(reg)
				mux := http.NewServeMux()
				mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
				go func() {
					if err := http.ListenAndServe(flagMetricsAddr, mux); err != nil {
						logger.Errorf("metrics server: %v", err)
					}
				}()
			}
			if flagURI != "" && flagDatabase != "" {
				return mongodoc.InitDB(cmd.Context(), flagURI, flagDatabase)
			}
			// otherwise the first operation connects from the environment
			return nil
		},
	}

	pingCmd = &cobra.Command{
		Use:   "ping",
		Short: "connect to the database and report success",
		RunE: func(cmd *cobra.Command, args []string) error {
			// CreateCollectionClass forces the lazy connection path too
			if _, err := mongodoc.CreateCollectionClass("Ping", "ping"); err != nil {
				return err
			}
			fmt.Println("ok")
			return nil
		},
	}

	countCmd = &cobra.Command{
		Use:   "count <collection>",
		Short: "count the documents in a collection",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			class, err := mongodoc.CreateCollectionClass(args[0], args[0])
			if err != nil {
				return err
			}
			n, err := class.Count(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Println(n)
			return nil
		},
	}

	findCmd = &cobra.Command{
		Use:   "find <collection>",
		Short: "print matching documents as JSON, one per line",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			class, err := mongodoc.CreateCollectionClass(args[0], args[0])
			if err != nil {
				return err
			}
			filter, err := parseJSONMap(flagFilter)
			if err != nil {
				return err
			}
			for doc, err := range class.Find(filter).Documents(cmd.Context()) {
				if err != nil {
					return err
				}
				if err := printDoc(doc); err != nil {
					return err
				}
			}
			return nil
		},
	}

	insertCmd = &cobra.Command{
		Use:   "insert <collection>",
		Short: "insert the document given with --doc and print its id",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			class, err := mongodoc.CreateCollectionClass(args[0], args[0])
			if err != nil {
				return err
			}
			fields, err := parseJSONMap(flagDoc)
			if err != nil {
				return err
			}
			doc := class.NewFromMap(fields)
			if err := doc.Save(cmd.Context()); err != nil {
				return err
			}
			fmt.Println(doc.ID())
			return nil
		},
	}

	deleteCmd = &cobra.Command{
		Use:   "delete <collection> <id>",
		Short: "delete a document by its hex id",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			class, err := mongodoc.CreateCollectionClass(args[0], args[0])
			if err != nil {
				return err
			}
			doc, err := class.GetByID(cmd.Context(), args[1])
			if err != nil {
				return err
			}
			if doc == nil {
				return fmt.Errorf("no document with id %s", args[1])
			}
			return doc.Delete(cmd.Context())
		},
	}
)

func parseJSONMap(s string) (map[string]any, error) {
	if s == "" {
		return nil, nil
	}
	var out map[string]any
	if err := json.Unmarshal([]byte(s), &out); err != nil {
		return nil, fmt.Errorf("invalid JSON %q: %w", s, err)
	}
	return out, nil
}

func printDoc(doc *mongodoc.Document) error {
	m := doc.Map()
	m["_id"] = doc.ID()
	b, err := json.Marshal(m)
	if err != nil {
		return err
	}
	fmt.Println(string(b))
	return nil
}

func main() {
	rootCmd.PersistentFlags().StringVar(&flagURI, "uri", "", "connection string (falls back to MONGO_DB_CONNECTION_STRING)")
	rootCmd.PersistentFlags().StringVar(&flagDatabase, "database", "", "database name (falls back to MONGO_DB_NAME)")
	rootCmd.PersistentFlags().StringVar(&flagMetricsAddr, "metrics-addr", "", "serve prometheus metrics on this address")
	findCmd.Flags().StringVar(&flagFilter, "filter", "", "JSON object of exact field matches")
	insertCmd.Flags().StringVar(&flagDoc, "doc", "", "JSON object to insert")
	rootCmd.AddCommand(pingCmd, countCmd, findCmd, insertCmd, deleteCmd)

	ctx := context.Background()
	defer mongodoc.Disconnect(ctx)
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
