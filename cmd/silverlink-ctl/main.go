// Command silverlink-ctl drives a running silverlink dashboard from the shell.
//
//	silverlink-ctl start|stop|cancel|status|memos|watch
//	silverlink-ctl view traffic
//	silverlink-ctl delete <memo-id>
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/gorilla/websocket"
	flag "github.com/spf13/pflag"

	"github.com/teslashibe/go-silverlink/internal/config"
	"github.com/teslashibe/go-silverlink/internal/httpc"
	"github.com/teslashibe/go-silverlink/pkg/memo"
	"github.com/teslashibe/go-silverlink/pkg/voice"
)

func main() {
	addr := flag.StringP("addr", "a", config.DefaultDashboardAddr, "Dashboard address")
	flag.Usage = usage
	flag.Parse()

	if flag.NArg() == 0 {
		usage()
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	base := "http://" + *addr
	if err := dispatch(ctx, base, *addr, flag.Args()); err != nil {
		fmt.Fprintln(os.Stderr, "silverlink-ctl:", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: silverlink-ctl [--addr host:port] start|stop|cancel|status|memos|watch|view <name>|delete <id>")
	flag.PrintDefaults()
}

func dispatch(ctx context.Context, base, addr string, args []string) error {
	switch args[0] {
	case "start", "stop", "cancel":
		var resp struct {
			Snapshot voice.Snapshot `json:"snapshot"`
			Error    string         `json:"error"`
		}
		if err := call(ctx, http.MethodPost, base+"/api/ptt/"+args[0], &resp); err != nil {
			return err
		}
		printSnapshot(resp.Snapshot)
		if resp.Error != "" {
			fmt.Println("   ⚠️ ", resp.Error)
		}
		return nil

	case "status":
		var snap voice.Snapshot
		if err := call(ctx, http.MethodGet, base+"/api/status", &snap); err != nil {
			return err
		}
		printSnapshot(snap)
		return nil

	case "memos":
		var memos []memo.Memo
		if err := call(ctx, http.MethodGet, base+"/api/memos", &memos); err != nil {
			return err
		}
		if len(memos) == 0 {
			fmt.Println("（目前沒有記事）")
		}
		for _, m := range memos {
			fmt.Printf("%d  [%s] %s\n", m.ID, m.DisplayTime, m.Content)
		}
		return nil

	case "view":
		if len(args) < 2 {
			return fmt.Errorf("view needs a name: home, traffic or memo")
		}
		var snap voice.Snapshot
		if err := call(ctx, http.MethodPost, base+"/api/view/"+args[1], &snap); err != nil {
			return err
		}
		fmt.Println("view:", snap.View)
		return nil

	case "delete":
		if len(args) < 2 {
			return fmt.Errorf("delete needs a memo id")
		}
		return call(ctx, http.MethodDelete, base+"/api/memos/"+args[1], nil)

	case "watch":
		return watch(ctx, "ws://"+addr+"/ws/status")

	default:
		return fmt.Errorf("unknown command %q", args[0])
	}
}

// call sends a request without a body and decodes a JSON reply into out.
func call(ctx context.Context, method, url string, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, url, nil)
	if err != nil {
		return err
	}
	resp, err := httpc.Do(req)
	if err != nil {
		return fmt.Errorf("dashboard not reachable: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	// Turn routes report their failures inside the body.
	if resp.StatusCode >= 400 && !strings.Contains(url, "/api/ptt/") {
		var e struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(body, &e) == nil && e.Error != "" {
			return fmt.Errorf("%s (%d)", e.Error, resp.StatusCode)
		}
		return fmt.Errorf("%s %s: %s", method, url, resp.Status)
	}
	if out == nil {
		return nil
	}
	return json.Unmarshal(body, out)
}

// watch prints every snapshot pushed over the status websocket.
func watch(ctx context.Context, url string) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return fmt.Errorf("dial %s: %w", url, err)
	}
	defer conn.Close()

	go func() {
		<-ctx.Done()
		conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		conn.Close()
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil || websocket.IsCloseError(err, websocket.CloseNormalClosure) {
				return nil
			}
			return err
		}
		var snap voice.Snapshot
		if err := json.Unmarshal(data, &snap); err != nil {
			fmt.Fprintln(os.Stderr, "bad snapshot:", err)
			continue
		}
		printSnapshot(snap)
	}
}

func printSnapshot(s voice.Snapshot) {
	fmt.Printf("[%s] %-8s %s\n", s.State, s.View, s.Status)
	if s.NeedsSetup {
		fmt.Println("   ⚙️  需要設定 API Key")
	}
	if s.Transit != nil && s.View == "traffic" {
		fmt.Printf("   %s → %s  %s - %s  %s\n",
			s.Transit.Origin, s.Transit.Destination,
			s.Transit.DepartureTime, s.Transit.ArrivalTime, s.Transit.Fare)
	}
}
