package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Veraticus/kaikei/internal/cli"
)

func tenantCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "tenant",
		Aliases: []string{"client"},
		Short:   "Manage tenants",
	}

	add := &cobra.Command{
		Use:   "add <code>",
		Short: "Register a tenant and print its access key",
		Args:  cobra.ExactArgs(1),
		RunE:  runTenantAdd,
	}
	add.Flags().String("name", "", "display name")
	add.Flags().String("folder", "", "scan folder for this tenant")
	_ = add.MarkFlagRequired("name")

	list := &cobra.Command{
		Use:   "list",
		Short: "List tenants",
		Args:  cobra.NoArgs,
		RunE:  runTenantList,
	}

	del := &cobra.Command{
		Use:   "delete <code>",
		Short: "Remove a tenant and its learned state; the ledger file is kept",
		Args:  cobra.ExactArgs(1),
		RunE:  runTenantDelete,
	}

	cmd.AddCommand(add, list, del)
	return cmd
}

func runTenantAdd(cmd *cobra.Command, args []string) error {
	name, _ := cmd.Flags().GetString("name")
	folder, _ := cmd.Flags().GetString("folder")

	a, err := openApp(cmd.Context())
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	tenant, err := a.Directory.Register(cmd.Context(), name, args[0], folder)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, cli.FormatSuccess(fmt.Sprintf("Registered %s (%s)", tenant.Name, tenant.Code)))
	fmt.Fprintln(out, cli.RenderBox("Access key", tenant.AccessKey+"\n"+cli.SubtleStyle.Render("Shown once. Send it as X-Client-Key.")))
	return nil
}

func runTenantList(cmd *cobra.Command, _ []string) error {
	a, err := openApp(cmd.Context())
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	tenants, err := a.Directory.List(cmd.Context())
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(tenants) == 0 {
		fmt.Fprintln(out, cli.FormatInfo("No tenants registered"))
		return nil
	}

	p := a.Poller()
	rows := make([][]string, 0, len(tenants))
	for _, t := range tenants {
		rows = append(rows, []string{t.Code, t.Name, p.Folder(t), t.CreatedAt.Format("2006-01-02")})
	}
	fmt.Fprintln(out, cli.RenderTable([]string{"Code", "Name", "Folder", "Created"}, rows))
	return nil
}

func runTenantDelete(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd.Context())
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	if err := a.DeleteTenant(cmd.Context(), args[0]); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess("Deleted tenant "+args[0]))
	return nil
}
