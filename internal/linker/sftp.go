package linker

import (
	"context"
	"fmt"
	"io"
	"net"
	"strconv"

	"github.com/pkg/sftp"
	"golang.org/x/crypto/ssh"
)

// sftpFetch reads one remote file over SFTP with password authentication.
// No deadline is imposed here; callers that need bounded latency wrap the
// linking run with a context deadline on the store side.
func sftpFetch(_ context.Context, host string, port int, username, password, path string) ([]byte, error) {
	addr := net.JoinHostPort(host, strconv.Itoa(port))

	sshCfg := &ssh.ClientConfig{
		User: username,
		Auth: []ssh.AuthMethod{ssh.Password(password)},
		// Sources are operator-configured internal hosts without a
		// distributed known_hosts; key pinning is not modeled.
		HostKeyCallback: ssh.InsecureIgnoreHostKey(), //nolint:gosec
	}

	conn, err := ssh.Dial("tcp", addr, sshCfg)
	if err != nil {
		return nil, fmt.Errorf("ssh dial %s: %w", addr, err)
	}
	defer conn.Close()

	client, err := sftp.NewClient(conn)
	if err != nil {
		return nil, fmt.Errorf("sftp client: %w", err)
	}
	defer client.Close()

	f, err := client.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return data, nil
}
