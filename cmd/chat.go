package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/psds-microservice/support-chat/internal/application"
	"github.com/psds-microservice/support-chat/internal/chatui"
	"github.com/psds-microservice/support-chat/internal/dialogue"
	"github.com/psds-microservice/support-chat/internal/model"
	"github.com/spf13/cobra"
)

var chatSessionID string

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Talk to the assistant in the terminal",
	Long: "Interactive conversation against the configured session store.\n" +
		"Commands: /reset, /tickets, /menu, /attach <path> [text], /quit",
	RunE: runChat,
}

func init() {
	chatCmd.Flags().StringVar(&chatSessionID, "session", "terminal", "session id to resume or start")
}

func runChat(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	core, err := application.NewCore(cfg)
	if err != nil {
		return err
	}
	defer core.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	svc := core.Service
	out := cmd.OutOrStdout()
	r := chatui.NewRenderer(chatui.DefaultTheme, 80, cfg.AssistantName)

	s, err := svc.OpenSession(ctx, chatSessionID)
	if err != nil {
		return err
	}
	for _, m := range s.Transcript {
		fmt.Fprint(out, r.Message(m))
	}
	if s.MenuVisible {
		fmt.Fprint(out, r.Menu(svc.Menu()))
	}

	in := bufio.NewScanner(cmd.InOrStdin())
	for {
		fmt.Fprint(out, "> ")
		if !in.Scan() {
			return in.Err()
		}
		line := strings.TrimSpace(in.Text())

		var turn dialogue.Turn
		switch {
		case line == "/quit" || line == "/exit":
			return nil
		case line == "/reset":
			s, err := svc.Reset(ctx, chatSessionID)
			if err != nil {
				return err
			}
			fmt.Fprint(out, r.Separator())
			fmt.Fprint(out, r.Message(s.Transcript[0]))
			fmt.Fprint(out, r.Menu(svc.Menu()))
			continue
		case line == "/tickets":
			tickets, err := svc.Tickets(ctx, chatSessionID)
			if err != nil {
				return err
			}
			fmt.Fprint(out, r.Tickets(tickets))
			continue
		case line == "/menu":
			fmt.Fprint(out, r.Menu(svc.Menu()))
			continue
		case strings.HasPrefix(line, "/attach "):
			turn, err = attachTurn(strings.TrimSpace(strings.TrimPrefix(line, "/attach ")))
			if err != nil {
				fmt.Fprintln(out, err)
				continue
			}
		default:
			turn.Text = line
		}
		if turn.Empty() {
			continue
		}

		reply, err := svc.Send(ctx, chatSessionID, turn)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return nil
			}
			fmt.Fprintln(out, err)
			continue
		}
		printReply(out, r, svc.Menu(), reply)
	}
}

func printReply(out io.Writer, r *chatui.Renderer, menu []dialogue.MenuOption, reply dialogue.Reply) {
	for _, m := range reply.Messages {
		fmt.Fprint(out, r.Message(m))
	}
	if reply.Session != nil && reply.Session.MenuVisible {
		fmt.Fprint(out, r.Menu(menu))
	}
}

// attachTurn turns "/attach <path> [text]" into a turn carrying a local file.
func attachTurn(arg string) (dialogue.Turn, error) {
	path, text, _ := strings.Cut(arg, " ")
	abs, err := filepath.Abs(path)
	if err != nil {
		return dialogue.Turn{}, err
	}
	if _, err := os.Stat(abs); err != nil {
		return dialogue.Turn{}, fmt.Errorf("attach: %w", err)
	}
	return dialogue.Turn{
		Text: strings.TrimSpace(text),
		Attachment: &model.Attachment{
			Name:     filepath.Base(abs),
			Locator:  abs,
			MimeType: mime.TypeByExtension(filepath.Ext(abs)),
		},
	}, nil
}
