//go:build mage
// +build mage

package main

import (
	"fmt"
	"net"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/magefile/mage/mg" // mg contains helpful utility functions, like Deps
	"github.com/magefile/mage/sh"
	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/agent"
)

// Default target to run when none is specified
var Default = Build

type Pi mg.Namespace

var (
	binDir     = "bin"
	piBuildDir = "bin/pi"
	binName    = "proctop"
	mainPkg    = "./cmd/proctop"
)

// Builds proctop for the host platform
func Build() error {
	fmt.Println("Building...")
	return sh.RunV("go", "build", "-o", filepath.Join(binDir, binName), mainPkg)
}

// Runs the unit tests
func Test() error {
	return sh.RunV("go", "test", "./...")
}

// Removes build output
func Clean() {
	fmt.Println("Cleaning...")
	os.RemoveAll(binDir)
}

// Runs proctop on the Raspberry Pi over SSH, profiling the given command
// line with the given sample rate. Blocks until proctop exits.
func (Pi) Run(host string, username string, rate string, command string) error {
	mg.Deps(mg.F(Pi.Deploy, host, username))
	client, err := sshClient(username, host)
	if err != nil {
		return fmt.Errorf("failed to create SSH client: %w", err)
	}
	defer client.Close()
	session, err := client.NewSession()
	if err != nil {
		return fmt.Errorf("failed to create SSH session: %w", err)
	}
	defer session.Close()

	fmt.Println("--------------------------------")
	fmt.Println("PROFILING", command)
	fmt.Println("--------------------------------")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	session.Stdout = os.Stdout
	session.Stderr = os.Stderr
	remote := strings.Join([]string{"~/proctop/" + binName, rate, command}, " ")
	if err := session.Start(remote); err != nil {
		return fmt.Errorf("failed to start proctop on host: %w", err)
	}
	// forward signals to the remote proctop, force kill on the second one
	go func() {
		sig := <-sigChan
		fmt.Println("Received signal:", sig)
		session.Signal(ssh.SIGTERM)
		<-sigChan
		fmt.Println("Force killing proctop...")
		session.Signal(ssh.SIGKILL)
		session.Close()
		os.Exit(1)
	}()

	err = session.Wait()
	if err != nil {
		if exitErr, ok := err.(*ssh.ExitError); ok {
			// proctop exits with the profiled command's status
			return mg.Fatalf(exitErr.ExitStatus(), "profiled command exited with status %d", exitErr.ExitStatus())
		}
		return fmt.Errorf("failed to wait for proctop to exit: %w", err)
	}

	return nil
}

// Builds and deploys proctop to the Raspberry Pi, using SSH.
// Assumes you have SSH keys setup for the Raspberry Pi.
func (Pi) Deploy(
	host string,
	username string,
) error {
	mg.Deps(Pi.Build)
	connStr := fmt.Sprintf("%s@%s", username, host)
	deployPath := "/home/" + username + "/proctop"
	fmt.Printf("Copying binary via SCP to %s:%s\n", connStr, deployPath)

	err := sh.Run("ssh", connStr, "mkdir -p", deployPath)
	if err != nil {
		return fmt.Errorf("failed to create deploy path on host: %w", err)
	}
	err = sh.Run("scp", filepath.Join(piBuildDir, binName), fmt.Sprintf("%s:%s/%s", connStr, deployPath, binName))
	if err != nil {
		return fmt.Errorf("failed to deploy to host: %w", err)
	}
	return nil
}

// Builds proctop for the Raspberry Pi (linux/arm64)
func (Pi) Build() error {
	fmt.Println("Building for linux/arm64...")
	env := map[string]string{
		"GOOS":   "linux",
		"GOARCH": "arm64",
	}
	return sh.RunWithV(env, "go", "build", "-o", filepath.Join(piBuildDir, binName), mainPkg)
}

// Cleans up the Pi build directory
func (Pi) Clean() {
	fmt.Println("Cleaning...")
	os.RemoveAll(filepath.Join(piBuildDir, binName))
}

func sshClient(user, host string) (*ssh.Client, error) {
	var authMethods []ssh.AuthMethod

	conn, err := net.Dial("unix", os.Getenv("SSH_AUTH_SOCK"))
	if err == nil {
		agentClient := agent.NewClient(conn)
		signers, err := agentClient.Signers()
		if err == nil {
			authMethods = append(authMethods, ssh.PublicKeys(preferRSASHA2(signers)...))
		}
	}
	if len(authMethods) == 0 {
		return nil, fmt.Errorf("no SSH keys available from agent at %q", os.Getenv("SSH_AUTH_SOCK"))
	}

	config := &ssh.ClientConfig{
		User:            user,
		Auth:            authMethods,
		HostKeyCallback: ssh.InsecureIgnoreHostKey(), // Dev only.
	}
	addr := net.JoinHostPort(host, "22")
	fmt.Println("Dialing SSH client to", addr)
	return ssh.Dial("tcp", addr, config)
}

// preferRSASHA2 wraps plain ssh-rsa signers so they negotiate rsa-sha2
// algorithms first; newer sshd builds reject SHA-1 signatures.
func preferRSASHA2(signers []ssh.Signer) []ssh.Signer {
	out := make([]ssh.Signer, 0, len(signers))
	for _, signer := range signers {
		algSigner, ok := signer.(ssh.AlgorithmSigner)
		if !ok || signer.PublicKey().Type() != ssh.KeyAlgoRSA {
			out = append(out, signer)
			continue
		}
		mas, err := ssh.NewSignerWithAlgorithms(algSigner, []string{
			ssh.KeyAlgoRSASHA256,
			ssh.KeyAlgoRSASHA512,
		})
		if err != nil {
			out = append(out, signer)
			continue
		}
		out = append(out, mas)
	}
	return out
}
