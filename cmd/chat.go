package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/theirongolddev/fincoach/internal/chat"
	"github.com/theirongolddev/fincoach/internal/gateway"
	"github.com/theirongolddev/fincoach/internal/logging"

	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var flagChatRaw bool

var chatCmd = &cobra.Command{
	Use:   "chat <message>",
	Short: "Ask the finance coach one question",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runChat,
}

func init() {
	chatCmd.Flags().BoolVar(&flagChatRaw, "raw", false, "Print the reply without markdown rendering")
	rootCmd.AddCommand(chatCmd)
}

func runChat(cmd *cobra.Command, args []string) error {
	s, err := openSession("")
	if err != nil {
		return err
	}
	defer s.Close()

	sess := chat.New()
	reply, ok := sess.Send(cmd.Context(), loggedAgent{s.client, s.log}, strings.Join(args, " "))
	if !ok {
		return fmt.Errorf("message is empty")
	}

	if flagChatRaw {
		fmt.Println(reply.Text)
		return nil
	}
	out, err := glamour.Render(reply.Text, "dark")
	if err != nil {
		fmt.Println(reply.Text)
		return nil
	}
	fmt.Print(out)
	return nil
}

// loggedAgent logs failed turns before the session swaps in its diagnostic.
type loggedAgent struct {
	client *gateway.Client
	log    *zap.Logger
}

func (a loggedAgent) Chat(ctx context.Context, text string) (string, error) {
	reply, err := a.client.Chat(ctx, text)
	if err != nil {
		a.log.Error("agent chat failed", logging.Endpoint("/agent/chat"),
			zap.String("kind", gateway.Kind(err)), zap.Error(err))
	}
	return reply, err
}
