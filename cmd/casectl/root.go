package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/Werneck0live/cadastro-clientes/internal/admin"
	"github.com/Werneck0live/cadastro-clientes/internal/app"
	"github.com/Werneck0live/cadastro-clientes/internal/config"
	"github.com/Werneck0live/cadastro-clientes/internal/format"
	"github.com/Werneck0live/cadastro-clientes/internal/models"
	"github.com/Werneck0live/cadastro-clientes/internal/records"
	"github.com/Werneck0live/cadastro-clientes/internal/reports"
)

type globalFlags struct {
	store   string
	backend string
	timeout time.Duration
}

func newRootCmd() *cobra.Command {
	g := &globalFlags{}
	root := &cobra.Command{
		Use:           "casectl",
		Short:         "Consulta e manutenção do cadastro de clientes",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&g.store, "store", "", "arquivo CSV (sobrescreve STORE_PATH)")
	root.PersistentFlags().StringVar(&g.backend, "backend", "", "file ou mongo (sobrescreve STORE_BACKEND)")
	root.PersistentFlags().DurationVar(&g.timeout, "timeout", 30*time.Second, "tempo máximo da operação")

	root.AddCommand(newListCmd(g), newOverdueCmd(g), newExportCmd(g), newSeedCmd(g))
	return root
}

// withApp abre o store conforme env + flags e garante o Close.
func withApp(cmd *cobra.Command, g *globalFlags, fn func(ctx context.Context, a *app.App) error) error {
	if err := config.LoadDotEnv(); err != nil {
		return err
	}
	cfg := config.Load()
	if g.store != "" {
		cfg.StorePath = g.store
	}
	if g.backend != "" {
		cfg.StoreBackend = g.backend
	}
	// logs vão para stderr; stdout fica só com a saída do comando
	log := config.InitLoggerTo(cmd.ErrOrStderr(), cfg.LogLevel)

	ctx, cancel := context.WithTimeout(cmd.Context(), g.timeout)
	defer cancel()
	a, err := app.Open(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()
	return fn(ctx, a)
}

func newListCmd(g *globalFlags) *cobra.Command {
	var query string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "Lista os clientes, com filtro opcional por nome",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, g, func(ctx context.Context, a *app.App) error {
				set, err := a.Service.LoadAll(ctx)
				if err != nil {
					return err
				}
				views := a.Service.Views(records.FilterByName(set.Records, query))
				printViews(cmd.OutOrStdout(), views)
				if set.Skipped > 0 {
					fmt.Fprintf(cmd.ErrOrStderr(), "%d linha(s) malformada(s) ignorada(s)\n", set.Skipped)
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&query, "q", "q", "", "parte do nome")
	return cmd
}

func newOverdueCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "overdue",
		Short: "Lista os processos com prazo vencido",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, g, func(ctx context.Context, a *app.App) error {
				views, err := a.Service.Overdue(ctx)
				if err != nil {
					return err
				}
				printViews(cmd.OutOrStdout(), views)
				return nil
			})
		},
	}
}

func newExportCmd(g *globalFlags) *cobra.Command {
	var out, from, to string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Gera o relatório financeiro em .xlsx",
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := models.ParseDate(from)
			if err != nil {
				return fmt.Errorf("--from: %w", err)
			}
			t, err := models.ParseDate(to)
			if err != nil {
				return fmt.Errorf("--to: %w", err)
			}
			return withApp(cmd, g, func(ctx context.Context, a *app.App) error {
				s, err := a.Service.Summary(ctx, f.Time, t.Time)
				if err != nil {
					return err
				}
				file, err := os.Create(out)
				if err != nil {
					return err
				}
				if err := reports.WriteXLSX(file, s); err != nil {
					_ = file.Close()
					return err
				}
				if err := file.Close(); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s: %d registro(s), receita %s\n", out, s.Records, format.Money(s.KPIs.Revenue))
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&out, "out", "relatorio_financeiro.xlsx", "arquivo de saída")
	cmd.Flags().StringVar(&from, "from", "", "data inicial DD/MM/AAAA")
	cmd.Flags().StringVar(&to, "to", "", "data final DD/MM/AAAA")
	return cmd
}

func newSeedCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Cadastra os clientes de exemplo (idempotente)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, g, func(ctx context.Context, a *app.App) error {
				n, err := admin.SeedRecords(ctx, a.Service, nil)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%d cliente(s) criado(s)\n", n)
				return nil
			})
		},
	}
}

func printViews(w io.Writer, views []records.View) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, strings.Join([]string{"ID", "NOME", "TELEFONE", "CPF", "CNPJ", "DT_CONTRATO", "VALOR", "STATUS", "PRAZO"}, "\t"))
	for _, v := range views {
		fmt.Fprintln(tw, strings.Join([]string{
			v.ID, v.Nome, v.Telefone, v.CPF, v.CNPJ, v.DTContrato, v.Valor, v.Status, v.Prazo.String(),
		}, "\t"))
	}
	_ = tw.Flush()
}
