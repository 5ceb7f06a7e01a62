/*
Copyright (C) 2026  IPCKV Contributors

	This program is free software: you can redistribute it and/or modify
	it under the terms of the GNU General Public License as published by
	the Free Software Foundation, either version 3 of the License, or
	(at your option) any later version.

	This program is distributed in the hope that it will be useful,
	but WITHOUT ANY WARRANTY; without even the implied warranty of
	MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
	GNU General Public License for more details.

	You should have received a copy of the GNU General Public License
	along with this program.  If not, see <https://www.gnu.org/licenses/>.
*/

// Command ipckv-cli is an interactive REPL over one named table, for manual
// exercising and crash-recovery testing of a live ipckv table from the
// shell.
package main

import (
	"flag"
	"fmt"
	"io"
	"strings"

	"github.com/chzyer/readline"
	"github.com/google/uuid"

	"github.com/launix-de/ipckv/ipckv"
)

const newprompt = "\033[32m>\033[0m "
const resultprompt = "\033[31m=\033[0m "

func main() {
	name := flag.String("table", "test", "name of the table to attach to")
	trace := flag.Bool("trace", false, "log lock and resize activity")
	flag.Parse()

	ipckv.Settings.Trace = *trace
	ipckv.InitSettings()

	instance := uuid.New()
	fmt.Printf("ipckv-cli instance %s, table %q\n", instance, *name)

	t, err := ipckv.Open(*name)
	if err != nil {
		panic(err)
	}
	defer t.Close()

	l, err := readline.NewEx(&readline.Config{
		Prompt:            newprompt,
		HistoryFile:       ".ipckv-cli-history.tmp",
		InterruptPrompt:   "^C",
		EOFPrompt:         "exit",
		HistorySearchFold: true,
	})
	if err != nil {
		panic(err)
	}
	defer l.Close()
	l.CaptureExitSignal()

	for {
		line, err := l.Readline()
		if err == readline.ErrInterrupt {
			continue
		} else if err == io.EOF {
			break
		} else if err != nil {
			panic(err)
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		if err := dispatch(t, line); err != nil {
			fmt.Println("error:", err)
		}
	}
}

func dispatch(t *ipckv.Table, line string) error {
	fields := strings.Fields(line)
	cmd := fields[0]
	args := fields[1:]

	switch cmd {
	case "set":
		if len(args) < 2 {
			return fmt.Errorf("usage: set <key> <value>")
		}
		return t.Set(args[0], []byte(strings.Join(args[1:], " ")))

	case "get":
		if len(args) != 1 {
			return fmt.Errorf("usage: get <key>")
		}
		value, found, err := t.Get(args[0])
		if err != nil {
			return err
		}
		if !found {
			fmt.Println(resultprompt + "(not found)")
			return nil
		}
		fmt.Println(resultprompt + string(value))
		return nil

	case "remove", "rm":
		if len(args) != 1 {
			return fmt.Errorf("usage: remove <key>")
		}
		return t.Remove(args[0])

	case "clear":
		return t.Clear()

	case "size":
		size, err := t.Size()
		if err != nil {
			return err
		}
		fmt.Println(resultprompt, size)
		return nil

	case "print":
		return t.Print()

	case ":crash":
		next := !crashArmed
		ipckv.SetCrashOnNextInsert(next)
		crashArmed = next
		fmt.Printf("will crash on next insert: %v\n", crashArmed)
		return nil

	default:
		return fmt.Errorf("unknown command %q (set/get/remove/clear/size/print/:crash)", cmd)
	}
}

var crashArmed bool
