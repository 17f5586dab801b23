package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ekaya-inc/ekaya-procure/pkg/config"
	"github.com/ekaya-inc/ekaya-procure/pkg/database"
	"github.com/ekaya-inc/ekaya-procure/pkg/models"
	"github.com/ekaya-inc/ekaya-procure/pkg/repositories"
	"github.com/ekaya-inc/ekaya-procure/pkg/seed"
	"github.com/ekaya-inc/ekaya-procure/pkg/services"
)

func parseIDs(args []string) ([]int64, error) {
	ids := make([]int64, 0, len(args))
	for _, a := range args {
		for _, part := range strings.Split(a, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			id, err := strconv.ParseInt(part, 10, 64)
			if err != nil || id <= 0 {
				return nil, fmt.Errorf("invalid id %q", part)
			}
			ids = append(ids, id)
		}
	}
	return ids, nil
}

// seedCmd writes straight to the configured database, like the server does,
// so it works before the API is up.
func seedCmd(g *globals) *cobra.Command {
	var (
		file       string
		configPath string
	)

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Insert vendors from a YAML file, skipping existing emails",
		Long: `Insert vendors from a YAML file into the configured database.
Vendors whose email already exists are skipped. Without --file the built-in
sample vendors are used.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger, err := g.logger()
			if err != nil {
				return err
			}

			cfg, err := config.LoadFile(configPath, Version)
			if err != nil {
				return err
			}
			fixtures, err := seed.LoadFile(file)
			if err != nil {
				return err
			}

			store, err := database.Open(ctx, database.OptionsFromConfig(cfg.Database), logger)
			if err != nil {
				return err
			}
			defer store.Close()

			vendorService := services.NewVendorService(repositories.NewVendorRepository(store), logger)
			result, err := seed.Vendors(ctx, vendorService, fixtures.Vendors, logger)
			if err != nil {
				return err
			}

			if g.jsonOut {
				return printJSON(g.out, result)
			}
			fmt.Fprintf(g.out, "Seeded %d vendor(s), skipped %d existing\n", result.Created, result.Skipped)
			for _, e := range result.Errors {
				fmt.Fprintf(g.out, "  rejected: %s\n", e)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "Seed YAML file (default: built-in sample vendors)")
	cmd.Flags().StringVarP(&configPath, "config", "c", config.DefaultPath, "Config file path")
	return cmd
}

func vendorsCmd(g *globals) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "vendors",
		Short: "Manage the vendor registry",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List vendors",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := g.client()
			if err != nil {
				return err
			}
			vendors, err := c.ListVendors(cmd.Context())
			if err != nil {
				return err
			}
			if g.jsonOut {
				return printJSON(g.out, vendors)
			}
			return printVendors(g.out, vendors)
		},
	})

	var in models.VendorInput
	add := &cobra.Command{
		Use:   "add",
		Short: "Register a vendor",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := g.client()
			if err != nil {
				return err
			}
			vendor, err := c.CreateVendor(cmd.Context(), &in)
			if err != nil {
				return err
			}
			if g.jsonOut {
				return printJSON(g.out, vendor)
			}
			fmt.Fprintf(g.out, "Created vendor %d (%s)\n", vendor.ID, vendor.Email)
			return nil
		},
	}
	add.Flags().StringVar(&in.Name, "name", "", "Vendor name")
	add.Flags().StringVar(&in.Email, "email", "", "Vendor email")
	add.Flags().StringVar(&in.ContactPerson, "contact", "", "Contact person")
	add.Flags().StringVar(&in.Phone, "phone", "", "Phone number (10 digits)")
	add.Flags().StringVar(&in.Address, "address", "", "Postal address")
	_ = add.MarkFlagRequired("name")
	_ = add.MarkFlagRequired("email")
	cmd.AddCommand(add)

	return cmd
}

func rfpsCmd(g *globals) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rfps",
		Short: "Create, list and send RFPs",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List RFPs, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := g.client()
			if err != nil {
				return err
			}
			rfps, err := c.ListRFPs(cmd.Context())
			if err != nil {
				return err
			}
			if g.jsonOut {
				return printJSON(g.out, rfps)
			}
			return printRFPs(g.out, rfps)
		},
	})

	var preview bool
	create := &cobra.Command{
		Use:   "create [request text | -]",
		Short: "Create an RFP from a natural-language request",
		Long: `Create an RFP from a natural-language request. The text is taken from the
arguments, or from stdin when the only argument is "-".`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := requestText(cmd.InOrStdin(), args)
			if err != nil {
				return err
			}
			c, err := g.client()
			if err != nil {
				return err
			}

			if preview {
				draft, err := c.ParseRFP(cmd.Context(), text)
				if err != nil {
					return err
				}
				return printJSON(g.out, draft)
			}

			rfp, err := c.CreateRFP(cmd.Context(), text)
			if err != nil {
				return err
			}
			if g.jsonOut {
				return printJSON(g.out, rfp)
			}
			return printRFP(g.out, rfp)
		},
	}
	create.Flags().BoolVar(&preview, "preview", false, "Only parse the request; do not save an RFP")
	cmd.AddCommand(create)

	cmd.AddCommand(&cobra.Command{
		Use:   "send <rfp-id> <vendor-id>...",
		Short: "Email an RFP to vendors",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := parseIDs(args)
			if err != nil {
				return err
			}
			c, err := g.client()
			if err != nil {
				return err
			}
			result, err := c.SendRFP(cmd.Context(), ids[0], ids[1:])
			if err != nil {
				return err
			}
			if g.jsonOut {
				return printJSON(g.out, result)
			}
			return printSendResult(g.out, result)
		},
	})

	return cmd
}

func requestText(stdin io.Reader, args []string) (string, error) {
	if len(args) == 1 && args[0] == "-" {
		b, err := io.ReadAll(stdin)
		if err != nil {
			return "", fmt.Errorf("failed to read stdin: %w", err)
		}
		return strings.TrimSpace(string(b)), nil
	}
	return strings.Join(args, " "), nil
}

func proposalsCmd(g *globals) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "proposals",
		Short: "Ingest and compare vendor proposals",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "check",
		Short: "Poll the mailbox for vendor replies",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := g.client()
			if err != nil {
				return err
			}
			result, err := c.CheckEmails(cmd.Context())
			if err != nil {
				return err
			}
			if g.jsonOut {
				return printJSON(g.out, result)
			}
			return printMailboxResult(g.out, result)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "compare <rfp-id>",
		Short: "Score and compare the proposals for an RFP",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := parseIDs(args)
			if err != nil {
				return err
			}
			c, err := g.client()
			if err != nil {
				return err
			}
			report, err := c.CompareProposals(cmd.Context(), ids[0])
			if err != nil {
				return err
			}
			if g.jsonOut {
				return printJSON(g.out, report)
			}
			return printComparison(g.out, report)
		},
	})

	return cmd
}

