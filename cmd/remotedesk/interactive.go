package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"
)

const helpText = `Commands:
  connect <device-id> [address] [password]   connect to a peer (address/password optional)
  disconnect <device-id>                     tear down an active connection
  password <new-password>                    require a password from inbound connections
  remove-password                            stop requiring a password
  id                                         print this device's id
  status                                     list active connections
  help                                       print this message
  quit                                       exit`

// runInteractive reads commands from stdin until quit or EOF. There is no
// readline-style editing here (no such library appears anywhere in the
// dependency set this module draws from); a plain line scanner matches
// spec.md §1's "CLI argument parsing" external-collaborator boundary without
// reaching for more than the task needs.
func runInteractive(app *App) {
	fmt.Println(`Type "help" for a list of commands.`)
	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("remotedesk> ")
		if !scanner.Scan() {
			fmt.Println()
			return
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		fields := strings.Fields(line)
		cmd := fields[0]
		args := fields[1:]

		switch cmd {
		case "connect":
			dispatchConnect(app, args)
		case "disconnect":
			if len(args) != 1 {
				fmt.Println("usage: disconnect <device-id>")
				continue
			}
			if err := app.disconnect(args[0]); err != nil {
				fmt.Printf("error: %v\n", err)
			}
		case "password":
			if len(args) != 1 {
				fmt.Println("usage: password <new-password>")
				continue
			}
			if err := app.setPassword(args[0]); err != nil {
				fmt.Printf("error: %v\n", err)
			} else {
				fmt.Println("password set.")
			}
		case "remove-password":
			if err := app.removePassword(); err != nil {
				fmt.Printf("error: %v\n", err)
			} else {
				fmt.Println("password requirement removed.")
			}
		case "id":
			fmt.Println(app.deviceID.FormatWithSpaces())
		case "status":
			fmt.Print(app.status())
		case "help":
			fmt.Println(helpText)
		case "quit", "exit":
			return
		default:
			fmt.Printf("unknown command %q (try \"help\")\n", cmd)
		}
	}
}

func dispatchConnect(app *App, args []string) {
	if len(args) < 1 || len(args) > 3 {
		fmt.Println("usage: connect <device-id> [address] [password]")
		return
	}
	var addr, pass string
	if len(args) >= 2 {
		addr = args[1]
	}
	if len(args) == 3 {
		pass = args[2]
	}
	if err := app.connectWithPassword(args[0], addr, pass); err != nil {
		fmt.Printf("error: %v\n", err)
	}
}
