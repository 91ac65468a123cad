package cli

import (
	"context"
	"fmt"
	"strings"
)

const helpText = `Commands:
  home | about | blog | guestbook   switch tab
  filter <tag>                       show posts tagged <tag> ("all" for every post)
  open <n> | back                    read post n, return to the list
  sign                               set the name you comment under
  message                            write in the guestbook
  comment                            comment on the open post
  admin | lock                       unlock or lock authoring
  new | edit <n> | write | save | cancel | delete <n>
  help | exit`

// runREPL reads one command per line and renders the site after each one.
// It returns on end of input or "exit".
func runREPL(ctx context.Context, a *App) {
	for {
		fmt.Fprint(a.out, "\nbbs> ")
		line, err := a.reader.ReadString('\n')
		if err != nil && line == "" {
			return
		}
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		cmd, arg := parts[0], ""
		if len(parts) > 1 {
			arg = strings.Join(parts[1:], " ")
		}

		switch cmd {
		case "help", "?":
			fmt.Fprintln(a.out, helpText)
			continue
		case "home", "about", "blog", "guestbook":
			a.report(a.SelectTab(ctx, cmd))
		case "filter":
			a.Filter(arg)
		case "open":
			a.report(a.Open(ctx, arg))
		case "back":
			a.Back()
		case "new":
			a.report(a.NewPost(ctx))
		case "edit":
			a.report(a.EditPost(ctx, arg))
		case "write":
			a.report(a.WriteDraft())
		case "save":
			a.report(a.Save(ctx))
		case "cancel":
			a.Cancel()
		case "delete":
			a.report(a.Delete(ctx, arg))
		case "sign":
			a.report(a.Sign())
		case "message":
			a.report(a.Message(ctx))
		case "comment":
			a.report(a.Comment(ctx))
		case "admin":
			a.report(a.Admin(ctx))
		case "lock":
			a.Lock(ctx)
		case "exit", "quit":
			fmt.Fprintln(a.out, "Bye!")
			return
		default:
			fmt.Fprintln(a.out, "Unknown command:", cmd)
			continue
		}
		a.show()
	}
}
