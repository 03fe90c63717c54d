// Package sh provides the ishell backed diagnostics console for talking
// to a node over its serial link: raw device commands in, telemetry out.
package sh

import (
	"bufio"
	"fmt"
	"strconv"
	"time"

	"github.com/abiosoft/ishell"
	"go.bug.st/serial"
)

// Shell provides the interactive console.
type Shell struct {
	Shell *ishell.Shell

	port   serial.Port
	reader *bufio.Reader
	name   string
}

const (
	shellKey          = "$shell"
	unconnectedPrompt = "[none] > "
)

var commands = []*ishell.Cmd{
	&ConnectCmd,
	&DisconnectCmd,
	&SendCmd,
	&RawCmd,
	&WatchCmd,
	&StopCmd,
}

// AddCmds registers extra commands during init of command providers.
func AddCmds(cmds ...*ishell.Cmd) {
	commands = append(commands, cmds...)
}

// New creates a new shell.
func New() *Shell {
	s := &Shell{Shell: ishell.New()}
	s.Shell.Set(shellKey, s)
	s.Shell.SetPrompt(unconnectedPrompt)
	for _, cmd := range commands {
		s.Shell.AddCmd(cmd)
	}
	return s
}

// ShellFrom gets Shell from ishell context.
func ShellFrom(c *ishell.Context) *Shell {
	return c.Get(shellKey).(*Shell)
}

// Connect opens the serial link to a node.
func (s *Shell) Connect(name string, baud int) error {
	port, err := serial.Open(name, &serial.Mode{BaudRate: baud})
	if err != nil {
		return err
	}
	port.SetReadTimeout(time.Second)
	s.port = port
	s.reader = bufio.NewReader(port)
	s.name = name
	s.Shell.SetPrompt(fmt.Sprintf("[%s] > ", name))
	return nil
}

// Disconnect closes the serial link.
func (s *Shell) Disconnect() {
	if s.port != nil {
		s.port.Close()
		s.port, s.reader = nil, nil
	}
	s.Shell.SetPrompt(unconnectedPrompt)
}

// SendLine writes one command line and prints the next telemetry line.
func (s *Shell) SendLine(c *ishell.Context, line string) {
	if _, err := s.port.Write([]byte(line + "\n")); err != nil {
		c.Err(err)
		return
	}
	reply, err := s.reader.ReadString('\n')
	if err != nil {
		c.Err(fmt.Errorf("no reply: %v", err))
		return
	}
	c.Print(reply)
}

// MustBeConnected wraps a command func requiring a connection.
func MustBeConnected(fn func(c *ishell.Context)) func(c *ishell.Context) {
	return func(c *ishell.Context) {
		if ShellFrom(c).port == nil {
			c.Err(fmt.Errorf("not connected"))
			return
		}
		fn(c)
	}
}

// Run starts the console, optionally connecting first.
func (s *Shell) Run(port string, baud int) error {
	if port != "" {
		if err := s.Connect(port, baud); err != nil {
			return err
		}
		defer s.Disconnect()
	}
	s.Shell.Run()
	return nil
}

// ConnectCmd opens a serial link.
var ConnectCmd = ishell.Cmd{
	Name:    "connect",
	Aliases: []string{"c"},
	Help:    "PORT [BAUD]",
	Func: func(c *ishell.Context) {
		if len(c.Args) < 1 {
			c.Err(fmt.Errorf("PORT required"))
			return
		}
		baud := 9600
		if len(c.Args) > 1 {
			val, err := strconv.Atoi(c.Args[1])
			if err != nil {
				c.Err(fmt.Errorf("invalid BAUD: %v", err))
				return
			}
			baud = val
		}
		if err := ShellFrom(c).Connect(c.Args[0], baud); err != nil {
			c.Err(err)
		}
	},
}

// DisconnectCmd closes the serial link.
var DisconnectCmd = ishell.Cmd{
	Name: "disconnect",
	Help: "",
	Func: func(c *ishell.Context) {
		ShellFrom(c).Disconnect()
	},
}

// SendCmd sends device key/value pairs as one command object.
var SendCmd = ishell.Cmd{
	Name:    "send",
	Aliases: []string{"s"},
	Help:    "KEY VALUE [KEY VALUE ...]",
	Func: MustBeConnected(func(c *ishell.Context) {
		if len(c.Args) == 0 || len(c.Args)%2 != 0 {
			c.Err(fmt.Errorf("KEY VALUE pairs required"))
			return
		}
		line := "{"
		for i := 0; i < len(c.Args); i += 2 {
			value, err := strconv.Atoi(c.Args[i+1])
			if err != nil {
				c.Err(fmt.Errorf("invalid value for %s: %v", c.Args[i], err))
				return
			}
			if i > 0 {
				line += ","
			}
			line += fmt.Sprintf("%q:%d", c.Args[i], value)
		}
		line += "}"
		ShellFrom(c).SendLine(c, line)
	}),
}

// RawCmd sends a raw line exactly as typed.
var RawCmd = ishell.Cmd{
	Name: "raw",
	Help: "LINE",
	Func: MustBeConnected(func(c *ishell.Context) {
		if len(c.RawArgs) < 2 {
			c.Err(fmt.Errorf("LINE required"))
			return
		}
		ShellFrom(c).SendLine(c, c.RawArgs[1])
	}),
}

// WatchCmd prints telemetry for a number of seconds.
var WatchCmd = ishell.Cmd{
	Name:    "watch",
	Aliases: []string{"w"},
	Help:    "[SECONDS]",
	Func: MustBeConnected(func(c *ishell.Context) {
		seconds := 5
		if len(c.Args) > 0 {
			val, err := strconv.Atoi(c.Args[0])
			if err != nil {
				c.Err(fmt.Errorf("invalid SECONDS: %v", err))
				return
			}
			seconds = val
		}
		s := ShellFrom(c)
		deadline := time.Now().Add(time.Duration(seconds) * time.Second)
		for time.Now().Before(deadline) {
			line, err := s.reader.ReadString('\n')
			if err != nil {
				continue
			}
			c.Print(line)
		}
	}),
}

// StopCmd halts every output on the connected node.
var StopCmd = ishell.Cmd{
	Name: "stop",
	Help: "",
	Func: MustBeConnected(func(c *ishell.Context) {
		ShellFrom(c).SendLine(c, `{"stop":1}`)
	}),
}
