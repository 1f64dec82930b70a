package main

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pixelfold/imagechat"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Interactive conversation: type prompts, select outputs, edit them",
	RunE: func(cmd *cobra.Command, _ []string) error {
		manager, cleanup, err := newManager(cmd.Context())
		if err != nil {
			return err
		}
		defer cleanup()

		fmt.Println("imagechat - type a prompt to generate, /help for commands")

		params := imagechat.Parameters{}
		var lastImages []imagechat.GeneratedImage

		scanner := bufio.NewScanner(os.Stdin)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		for {
			fmt.Printf("[%s] > ", manager.ActiveModel())
			if !scanner.Scan() {
				return scanner.Err()
			}
			line := strings.TrimSpace(scanner.Text())
			if line == "" {
				continue
			}

			if strings.HasPrefix(line, "/") {
				if quit := runChatCommand(cmd, manager, &params, lastImages, line); quit {
					return nil
				}
				continue
			}

			result, err := manager.Generate(cmd.Context(), imagechat.GenerationRequest{
				Prompt: line,
				Params: params,
			})
			if err != nil {
				fmt.Println(imagechat.UserMessage(err))
				continue
			}

			lastImages = result.Images
			fmt.Printf("%s generated %d image(s):\n", result.Model, len(result.Images))
			for i, img := range result.Images {
				fmt.Printf("  [%d] %s\n", i+1, truncateRef(img.URL))
			}
			if ref, ok := manager.Selection(); ok {
				fmt.Printf("selected for editing: %s\n", truncateRef(ref))
			}
		}
	},
}

// recordParams prints the new parameter summary and leaves a trace of the
// change in the session log.
func recordParams(cmd *cobra.Command, manager *imagechat.Manager, params imagechat.Parameters) {
	summary := params.Summary()
	fmt.Println(summary)
	_ = manager.Sessions().Append(cmd.Context(), manager.Sessions().ActiveID(), imagechat.Message{
		Role:    imagechat.RoleSystem,
		Content: "parameters changed: " + summary,
	})
}

// runChatCommand handles /-prefixed commands; returns true on /quit.
func runChatCommand(cmd *cobra.Command, manager *imagechat.Manager, params *imagechat.Parameters, lastImages []imagechat.GeneratedImage, line string) bool {
	fields := strings.Fields(line)
	arg := ""
	if len(fields) > 1 {
		arg = fields[1]
	}

	switch fields[0] {
	case "/help":
		fmt.Println(`  /models            list models
  /model <key>       switch the active model
  /select <n>        select the n-th image of the last result for editing
  /upload <path>     use a local image file as the editing input
  /unselect          clear the selection
  /size <token>      set the image size (e.g. landscape_4_3)
  /steps <n>         set inference steps
  /num <n>           set number of images
  /params            show the current parameters
  /new               start a new session
  /sessions          list sessions
  /load <id>         switch to a session
  /clear             discard all sessions
  /quit              exit`)

	case "/models":
		for _, desc := range manager.ListModels() {
			marker := " "
			if desc.Key == manager.ActiveModel() {
				marker = "*"
			}
			fmt.Printf("%s %-26s %-14s %s\n", marker, desc.Key, desc.Capability, desc.DisplayName)
		}

	case "/model":
		if err := manager.SetActiveModel(arg); err != nil {
			fmt.Println(imagechat.UserMessage(err))
		}

	case "/select":
		n, err := strconv.Atoi(arg)
		if err != nil || n < 1 || n > len(lastImages) {
			fmt.Printf("pick 1-%d\n", len(lastImages))
			break
		}
		manager.SelectImage(lastImages[n-1].URL)
		fmt.Printf("selected image %d; active model is now %s\n", n, manager.ActiveModel())

	case "/upload":
		ref, err := imagechat.ReadImageFile(arg)
		if err != nil {
			fmt.Println(imagechat.UserMessage(err))
			break
		}
		manager.SelectImage(ref)
		fmt.Printf("uploaded; active model is now %s\n", manager.ActiveModel())

	case "/unselect":
		manager.ClearSelection()

	case "/size":
		params.ImageSize = imagechat.ImageSize(arg)
		recordParams(cmd, manager, *params)

	case "/steps":
		params.Steps, _ = strconv.Atoi(arg)
		recordParams(cmd, manager, *params)

	case "/num":
		params.NumImages, _ = strconv.Atoi(arg)
		recordParams(cmd, manager, *params)

	case "/params":
		fmt.Println(params.Summary())

	case "/new":
		session, err := manager.Sessions().Create(cmd.Context())
		if err != nil {
			fmt.Println(err)
			break
		}
		fmt.Printf("new session %s\n", session.ID)

	case "/sessions":
		for _, session := range manager.Sessions().List() {
			marker := " "
			if session.ID == manager.Sessions().ActiveID() {
				marker = "*"
			}
			fmt.Printf("%s %s  %-33s %d messages\n", marker, session.ID, session.Title, len(session.Messages))
		}

	case "/load":
		if _, err := manager.Sessions().Load(arg); err != nil {
			fmt.Println(imagechat.UserMessage(err))
		}

	case "/clear":
		if _, err := manager.Sessions().ClearAll(cmd.Context()); err != nil {
			fmt.Println(err)
		}

	case "/quit", "/exit":
		return true

	default:
		fmt.Println("unknown command, /help lists them")
	}
	return false
}
