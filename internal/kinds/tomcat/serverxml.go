package tomcat

import (
	"encoding/xml"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/charlievieth/fastwalk"

	"github.com/goofcode/just-start-server/internal/shared/apperr"
)

// serverXML mirrors the subset of conf/server.xml we care about.
type serverXML struct {
	XMLName  xml.Name `xml:"Server"`
	Services []struct {
		Connectors []connector `xml:"Connector"`
	} `xml:"Service"`
}

type connector struct {
	Port     int    `xml:"port,attr"`
	Protocol string `xml:"protocol,attr"`
}

// connectorPort parses the HTTP connector port from a server.xml file.
func connectorPort(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("%w: %s", apperr.New(apperr.InaccessibleResources, path), err)
	}

	var doc serverXML
	if err := xml.Unmarshal(data, &doc); err != nil {
		return 0, fmt.Errorf("%w: %s", apperr.New(apperr.InvalidInternalResource, path), err)
	}

	for _, svc := range doc.Services {
		for _, c := range svc.Connectors {
			// The HTTP connector either carries no protocol attribute or
			// an HTTP/1.1 style value; AJP and NIO2 variants are skipped.
			if c.Protocol == "" || strings.HasPrefix(c.Protocol, "HTTP") {
				return c.Port, nil
			}
		}
	}
	return 0, apperr.New(apperr.InvalidInternalResource, "no HTTP connector in "+path)
}

// findServerXML locates conf/server.xml under root. The default location is
// tried first; non-standard layouts fall back to a bounded walk.
func findServerXML(root string) (string, error) {
	standard := filepath.Join(root, "conf", "server.xml")
	if _, err := os.Stat(standard); err == nil {
		return standard, nil
	}

	var (
		mu    sync.Mutex
		found string
	)
	conf := fastwalk.Config{Follow: false}
	err := fastwalk.Walk(&conf, root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil // unreadable subtree, keep walking
		}
		if !d.IsDir() && d.Name() == "server.xml" {
			mu.Lock()
			if found == "" {
				found = path
			}
			mu.Unlock()
			return filepath.SkipDir
		}
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("%w: %s", apperr.New(apperr.InaccessibleResources, root), err)
	}
	if found == "" {
		return "", apperr.New(apperr.InvalidInternalResource, "server.xml not found under "+root)
	}
	return found, nil
}
