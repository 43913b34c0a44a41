package services

import (
	"context"
	"fmt"
	"io"
	"log"

	clamd "github.com/dutchcoders/go-clamd"
)

// CleanVerdict is returned for content with no findings.
const CleanVerdict = "clean"

// ClamScanner submits content streams to a clamd daemon. RES_FOUND results
// are mapped to a structured "threat detected: <signature>" verdict; the
// lifecycle guard keys off that marker, never off raw scanner output.
type ClamScanner struct {
	address string
}

func NewClamScanner(address string) *ClamScanner {
	return &ClamScanner{address: address}
}

// CheckConnection pings the daemon, for health checks.
func (s *ClamScanner) CheckConnection() error {
	return clamd.NewClamd(s.address).Ping()
}

func (s *ClamScanner) Scan(ctx context.Context, reader io.Reader) (string, error) {
	c := clamd.NewClamd(s.address)

	abort := make(chan bool)
	defer close(abort)

	responses, err := c.ScanStream(reader, abort)
	if err != nil {
		return "", fmt.Errorf("clamav scan failed: %w", err)
	}

	verdict := CleanVerdict
	for {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case res, ok := <-responses:
			if !ok {
				return verdict, nil
			}
			switch res.Status {
			case clamd.RES_FOUND:
				log.Printf("[SCAN] threat found: %s", res.Description)
				verdict = fmt.Sprintf("threat detected: %s", res.Description)
			case clamd.RES_ERROR, clamd.RES_PARSE_ERROR:
				return "", fmt.Errorf("clamav error: %s", res.Raw)
			}
		}
	}
}
