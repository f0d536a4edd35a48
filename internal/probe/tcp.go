package probe

import (
	"context"
	"net"
	"time"
)

const defaultDialTimeout = 3 * time.Second

// TCP probes a listener by dialing it. A successful dial means ready.
type TCP struct {
	Addr    string
	Timeout time.Duration
}

func (p TCP) Ready(ctx context.Context) (bool, error) {
	to := p.Timeout
	if to <= 0 {
		to = defaultDialTimeout
	}
	d := net.Dialer{Timeout: to}
	conn, err := d.DialContext(ctx, "tcp", p.Addr)
	if err != nil {
		return false, err
	}
	_ = conn.Close()
	return true, nil
}

func (p TCP) Describe() string { return "tcp:" + p.Addr }
