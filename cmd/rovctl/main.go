package main

import (
	"bufio"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.bug.st/serial"

	"github.com/subsearobotics/rov.go/pkg/cli/sh"
	"github.com/subsearobotics/rov.go/pkg/identity"
)

var (
	portName     string
	baudRate     int
	identityFile string
)

var rootCmd = &cobra.Command{
	Use:   "rovctl",
	Short: "ROV node provisioning and diagnostics",
	Long: `rovctl talks to a single node over its serial link: provision its
identity byte, ping it, or open an interactive console.`,
}

var provisionCmd = &cobra.Command{
	Use:   "provision ROLE",
	Short: "Write the persisted identity byte",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args[0]) != 1 || !identity.Role(args[0][0]).IsValid() {
			return fmt.Errorf("ROLE must be one of T, A, M, I")
		}
		role := identity.Role(args[0][0])
		store := &identity.FileStore{Path: identityFile}
		if err := store.WriteRole(role); err != nil {
			return err
		}
		fmt.Printf("provisioned %s as %s\n", identityFile, role.DeviceID())
		return nil
	},
}

var pingCmd = &cobra.Command{
	Use:   "ping",
	Short: "Send an empty command and print the node's reply",
	RunE: func(cmd *cobra.Command, args []string) error {
		port, err := serial.Open(portName, &serial.Mode{BaudRate: baudRate})
		if err != nil {
			return err
		}
		defer port.Close()
		port.SetReadTimeout(2 * time.Second)

		if _, err := port.Write([]byte("{}\n")); err != nil {
			return err
		}
		reply, err := bufio.NewReader(port).ReadString('\n')
		if err != nil {
			return fmt.Errorf("no reply: %v", err)
		}
		fmt.Print(reply)
		return nil
	},
}

var consoleCmd = &cobra.Command{
	Use:   "console",
	Short: "Open the interactive diagnostics console",
	RunE: func(cmd *cobra.Command, args []string) error {
		return sh.New().Run(portName, baudRate)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&portName, "port", "p", "", "Serial port of the node")
	rootCmd.PersistentFlags().IntVarP(&baudRate, "baud", "b", 9600, "Baud rate")
	rootCmd.PersistentFlags().StringVar(&identityFile, "identity-file", "/var/lib/rovnode/identity", "Path of the persisted identity byte")
	rootCmd.AddCommand(provisionCmd, pingCmd, consoleCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
