package di

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/KOMKZ/go-yogan-ioc/descriptor"
	"github.com/KOMKZ/go-yogan-ioc/health"
	"github.com/KOMKZ/go-yogan-ioc/resolver"
	"github.com/spf13/cobra"
)

// Command 诊断命令：beans / graph / cycles / health
// 子命令执行前完成 Setup，执行后关闭应用
func (app *Application) Command() *cobra.Command {
	root := &cobra.Command{
		Use:           app.name,
		Short:         "容器诊断",
		Version:       app.version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return app.Setup()
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return app.Shutdown(ctx)
		},
	}

	root.AddCommand(
		&cobra.Command{
			Use:   "beans",
			Short: "列出已注册的 bean key",
			RunE: func(cmd *cobra.Command, args []string) error {
				return writeBeans(cmd.OutOrStdout(), app.ioc)
			},
		},
		&cobra.Command{
			Use:   "graph",
			Short: "以 DOT 格式输出依赖图",
			RunE: func(cmd *cobra.Command, args []string) error {
				g, err := app.ioc.Graph()
				if err != nil {
					return err
				}
				return g.DOT(cmd.OutOrStdout())
			},
		},
		&cobra.Command{
			Use:   "cycles",
			Short: "检测依赖环，存在时返回错误",
			RunE: func(cmd *cobra.Command, args []string) error {
				cycle, err := app.ioc.Cycles()
				if err != nil {
					return err
				}
				return writeCycle(cmd.OutOrStdout(), cycle)
			},
		},
		&cobra.Command{
			Use:   "health",
			Short: "输出健康检查结果（JSON），不健康时返回错误",
			RunE: func(cmd *cobra.Command, args []string) error {
				resp := app.Health(cmd.Context())
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				if err := enc.Encode(resp); err != nil {
					return err
				}
				if resp.Status == health.StatusUnhealthy {
					return fmt.Errorf("health status: %s", resp.Status)
				}
				return nil
			},
		},
	)
	return root
}

func writeBeans(w io.Writer, c *Container) error {
	for _, key := range c.Keys() {
		entries := c.Repository().GetMany(key)
		sources := make([]string, 0, len(entries))
		for _, e := range entries {
			sources = append(sources, describeSource(e.Source, e.Primary))
		}
		if _, err := fmt.Fprintf(w, "%s\t%s\n", key, strings.Join(sources, ", ")); err != nil {
			return err
		}
	}
	return nil
}

func describeSource(source any, primary bool) string {
	var s string
	switch src := source.(type) {
	case descriptor.Member:
		s = src.String() + " (" + src.Scope().String() + ")"
	case *instanceSource:
		s = "instance"
	default:
		s = fmt.Sprintf("%T", source)
	}
	if primary {
		s += " [primary]"
	}
	return s
}

func writeCycle(w io.Writer, cycle []descriptor.Member) error {
	if len(cycle) == 0 {
		_, err := fmt.Fprintln(w, "no cycle")
		return err
	}
	parts := make([]string, 0, len(cycle)+1)
	for _, m := range cycle {
		parts = append(parts, m.String())
	}
	parts = append(parts, cycle[0].String())
	if _, err := fmt.Fprintln(w, strings.Join(parts, " -> ")); err != nil {
		return err
	}
	return resolver.ErrCycle.WithMsgf("dependency cycle of %d members", len(cycle))
}
