package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/dmehra2102/Send-Payment-Service/internal/payment/domain"
	paymentkafka "github.com/dmehra2102/Send-Payment-Service/internal/payment/infrastructure/kafka"
	"github.com/dmehra2102/Send-Payment-Service/internal/payment/presentation"
	"github.com/dmehra2102/Send-Payment-Service/pkg/idempotency"
	"github.com/dmehra2102/Send-Payment-Service/pkg/logging"
	"github.com/dmehra2102/Send-Payment-Service/pkg/shutdown"
)

func sendCmd() *cobra.Command {
	var to, amount, currency string

	cmd := &cobra.Command{
		Use:   "send",
		Short: "Send a payment",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := shutdown.WithSignals(cmd.Context())
			defer cancel()

			a, err := newApp(ctx, loadSettings())
			if err != nil {
				return err
			}
			defer a.close()

			form := presentation.NewPaymentForm(a.svc)
			form.SetRecipientEmail(to)
			form.SetAmount(amount)
			form.SetCurrency(strings.ToUpper(currency))

			state := form.Send(ctx)
			if state.ErrorMessage != "" {
				return errors.New(state.ErrorMessage)
			}
			fmt.Fprintln(cmd.OutOrStdout(), state.SuccessMessage)
			return nil
		},
	}

	cmd.Flags().StringVar(&to, "to", "", "Recipient email")
	cmd.Flags().StringVar(&amount, "amount", "", "Amount to send")
	cmd.Flags().StringVar(&currency, "currency", domain.USD.Code, "Currency (USD, EUR, GBP)")

	return cmd
}

func validateCmd() *cobra.Command {
	var to, currency string
	var amount float64

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Check a payment locally and against the gateway without sending it",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := shutdown.WithSignals(cmd.Context())
			defer cancel()

			req := domain.PaymentRequest{RecipientEmail: to, Amount: amount, Currency: strings.ToUpper(currency)}
			out := cmd.OutOrStdout()

			local := domain.Validate(req)
			if local.IsValid {
				fmt.Fprintln(out, "local:  valid")
			} else {
				fmt.Fprintf(out, "local:  invalid (%s)\n", strings.Join(local.Errors, ", "))
			}

			a, err := newApp(ctx, loadSettings())
			if err != nil {
				return err
			}
			defer a.close()

			ok, err := a.svc.Validate(ctx, req)
			if err != nil {
				return fmt.Errorf("remote validation: %w", err)
			}
			fmt.Fprintf(out, "remote: %t\n", ok)
			return nil
		},
	}

	cmd.Flags().StringVar(&to, "to", "", "Recipient email")
	cmd.Flags().Float64Var(&amount, "amount", 0, "Amount")
	cmd.Flags().StringVar(&currency, "currency", domain.USD.Code, "Currency (USD, EUR, GBP)")

	return cmd
}

func historyCmd() *cobra.Command {
	var watch bool

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List transactions, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := shutdown.WithSignals(cmd.Context())
			defer cancel()

			a, err := newApp(ctx, loadSettings())
			if err != nil {
				return err
			}
			defer a.close()

			out := cmd.OutOrStdout()
			h := presentation.NewHistory(a.history)

			first := make(chan presentation.HistoryState, 1)
			h.OnChange(func(s presentation.HistoryState) {
				if s.IsLoading {
					return
				}
				if s.ErrorMessage != "" {
					fmt.Fprintln(cmd.ErrOrStderr(), "error:", s.ErrorMessage)
				} else if watch {
					printTransactions(out, s.Transactions)
				}
				select {
				case first <- s:
				default:
				}
			})

			done := h.Start(ctx)
			defer h.Stop()

			if watch {
				select {
				case <-ctx.Done():
				case <-done:
				}
				return nil
			}

			select {
			case s := <-first:
				if s.ErrorMessage != "" {
					return errors.New(s.ErrorMessage)
				}
				printTransactions(out, s.Transactions)
			case <-done:
			case <-ctx.Done():
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&watch, "watch", "w", false, "Keep printing the list as it changes")

	return cmd
}

func getCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get [id]",
		Short: "Show one transaction",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := shutdown.WithSignals(cmd.Context())
			defer cancel()

			a, err := newApp(ctx, loadSettings())
			if err != nil {
				return err
			}
			defer a.close()

			t, err := a.svc.Transaction(ctx, args[0])
			if err != nil {
				return err
			}
			if t == nil {
				return fmt.Errorf("transaction %s not found", args[0])
			}
			printTransactions(cmd.OutOrStdout(), []domain.Transaction{*t})
			return nil
		},
	}
}

func eventsCmd() *cobra.Command {
	var group string

	cmd := &cobra.Command{
		Use:   "events",
		Short: "Follow TransactionRecorded events published by the outbox relay",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := shutdown.WithSignals(cmd.Context())
			defer cancel()

			cfg := loadSettings()
			if cfg.kafkaAddr == "" {
				return errors.New("KAFKA_ADDR is not set")
			}
			log := logging.New(cfg.logLevel)

			var idem paymentkafka.Deduper
			if cfg.redisAddr != "" {
				rdb := redis.NewClient(&redis.Options{Addr: cfg.redisAddr})
				defer rdb.Close()
				idem = idempotency.NewStore(rdb, 10*time.Minute)
			}

			out := cmd.OutOrStdout()
			reader := paymentkafka.NewReader([]string{cfg.kafkaAddr}, cfg.outboxTopic, group)
			consumer := paymentkafka.NewConsumer(log, reader, func(_ context.Context, ev domain.TransactionRecorded) error {
				fmt.Fprintf(out, "%s  %s  %s %s  %s\n",
					ev.Timestamp.Format(time.RFC3339), ev.TransactionID, formatAmount(ev.Currency, ev.Amount), ev.Currency, ev.RecipientEmail)
				return nil
			}, idem)

			return consumer.Run(ctx)
		},
	}

	cmd.Flags().StringVar(&group, "group", "sendpay-events", "Kafka consumer group")

	return cmd
}

func printTransactions(w io.Writer, txns []domain.Transaction) {
	if len(txns) == 0 {
		fmt.Fprintln(w, "No transactions yet")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tRECIPIENT\tAMOUNT\tSTATUS\tTIME")
	for _, t := range txns {
		fmt.Fprintf(tw, "%s\t%s\t%s %s\t%s\t%s\n",
			t.ID, t.RecipientEmail, formatAmount(t.Currency, t.Amount), t.Currency, t.Status, t.Timestamp.Local().Format("2006-01-02 15:04:05"))
	}
	_ = tw.Flush()
}

func formatAmount(code string, amount float64) string {
	if c, ok := domain.LookupCurrency(code); ok {
		return fmt.Sprintf("%s%.2f", c.Symbol, amount)
	}
	return fmt.Sprintf("%.2f", amount)
}

