package assistant

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/teslashibe/go-silverlink/internal/config"
	"github.com/teslashibe/go-silverlink/pkg/directions"
	"github.com/teslashibe/go-silverlink/pkg/intent"
	"github.com/teslashibe/go-silverlink/pkg/memo"
	"github.com/teslashibe/go-silverlink/pkg/transit"
)

var (
	loc     = time.FixedZone("CST", 8*60*60)
	fixedAt = time.Date(2025, 1, 2, 13, 0, 0, 0, loc)
	allKeys = config.Keys{OpenAI: "sk", Taigi: "tg", GoogleMaps: "gm"}
)

func tv(text string, value float64) *transit.TextValue {
	return &transit.TextValue{Text: text, Value: value}
}

// trainRoute has no fare, no arrival text and a 9000s leg.
func trainRoute() transit.Route {
	return transit.Route{Legs: []transit.Leg{{
		Duration: tv("2 小時 30 分", 9000),
		Steps: []transit.RawStep{{
			TravelMode: "TRANSIT",
			Distance:   tv("350 公里", 350000),
			Duration:   tv("2 小時 30 分", 9000),
			TransitDetails: &transit.RawTransitDetails{
				Line: transit.Line{Name: "Train", Vehicle: transit.Vehicle{Name: "Train", Type: "RAIL"}},
			},
		}},
	}}}
}

func newRouter(t *testing.T, dirs directions.Service) (*Router, *memo.JSONStore) {
	t.Helper()
	store, err := memo.NewJSONStore(filepath.Join(t.TempDir(), "memos.json"), memo.WithLocation(loc))
	if err != nil {
		t.Fatal(err)
	}
	r := NewRouter(dirs, store,
		WithLocation(loc),
		WithClock(func() time.Time { return fixedAt }),
	)
	return r, store
}

func TestTrafficTrainToKaohsiung(t *testing.T) {
	dirs := &directions.Mock{RouteFunc: func(ctx context.Context, q directions.Query, key string) (transit.Route, error) {
		return trainRoute(), nil
	}}
	router, _ := newRouter(t, dirs)

	var progress []string
	out := router.Handle(context.Background(), intent.Result{
		Intent:        intent.KindTraffic,
		Reply:         "好",
		Destination:   "高雄",
		PreferredMode: "TRAIN",
		DepartureTime: "now",
	}, allKeys, func(s string) { progress = append(progress, s) })

	if out.Failed || out.View != ViewTraffic || out.Transit == nil {
		t.Fatalf("outcome = %+v", out)
	}
	want := "好的，幫您查去高雄的路線。建議搭 火車，立即發車，預計 15:30 會到。"
	if out.Reply != want {
		t.Errorf("Reply = %q, want %q", out.Reply, want)
	}
	if strings.Contains(out.Reply, "票價") {
		t.Error("reply should have no fare clause")
	}
	if len(progress) != 1 || progress[0] != "查詢 台北 到 高雄..." {
		t.Errorf("progress = %v", progress)
	}

	q := dirs.Queries()
	if len(q) != 1 || q[0].Mode != directions.ModeTrain || q[0].Departure != nil || q[0].Origin != DefaultOrigin {
		t.Errorf("queries = %+v", q)
	}
}

func TestTrafficDefaultsAndDeparture(t *testing.T) {
	dirs := &directions.Mock{RouteFunc: func(ctx context.Context, q directions.Query, key string) (transit.Route, error) {
		if key != "gm" {
			t.Errorf("key = %q", key)
		}
		return trainRoute(), nil
	}}
	router, _ := newRouter(t, dirs)

	out := router.Handle(context.Background(), intent.Result{
		Intent:        intent.KindTraffic,
		DepartureTime: "2025-01-02T17:00:00",
	}, allKeys, nil)

	if out.Transit.DepartureTime != "17:00" || out.Transit.ArrivalTime != "19:30" {
		t.Errorf("times = %s/%s", out.Transit.DepartureTime, out.Transit.ArrivalTime)
	}
	q := dirs.Queries()[0]
	if q.Origin != "台北" || q.Destination != "高雄" || q.Mode != directions.ModeAny {
		t.Errorf("query = %+v", q)
	}
	if q.Departure == nil || !q.Departure.Equal(time.Date(2025, 1, 2, 17, 0, 0, 0, loc)) {
		t.Errorf("departure = %v", q.Departure)
	}
}

func TestTrafficZeroResults(t *testing.T) {
	dirs := &directions.Mock{} // nil RouteFunc answers ZERO_RESULTS
	router, _ := newRouter(t, dirs)

	out := router.Handle(context.Background(), intent.Result{Intent: intent.KindTraffic, Destination: "月球"}, allKeys, nil)

	if out.Reply != ReplyRouteFailed {
		t.Errorf("Reply = %q", out.Reply)
	}
	if out.Status != "查詢失敗: 找不到符合條件的路線" {
		t.Errorf("Status = %q", out.Status)
	}
	if !out.Failed || out.Transit != nil || out.View != "" {
		t.Errorf("outcome = %+v", out)
	}
}

func TestTrafficMalformedRoute(t *testing.T) {
	dirs := &directions.Mock{RouteFunc: func(ctx context.Context, q directions.Query, key string) (transit.Route, error) {
		return transit.Route{}, nil
	}}
	router, _ := newRouter(t, dirs)

	out := router.Handle(context.Background(), intent.Result{Intent: intent.KindTraffic}, allKeys, nil)
	if !out.Failed || out.Status != "查詢失敗: 路線資料不完整" {
		t.Errorf("outcome = %+v", out)
	}
}

func TestTrafficMissingMapsKey(t *testing.T) {
	dirs := &directions.Mock{}
	router, _ := newRouter(t, dirs)

	out := router.Handle(context.Background(), intent.Result{Intent: intent.KindTraffic, Reply: "好"},
		config.Keys{OpenAI: "sk", Taigi: "tg"}, nil)

	if out.Reply != "" || out.Status != StatusNeedMapsKey || !out.NeedsSetup || out.Failed {
		t.Errorf("outcome = %+v", out)
	}
	if len(dirs.Queries()) != 0 {
		t.Error("directions should not be called")
	}
}

func TestMemo(t *testing.T) {
	router, store := newRouter(t, &directions.Mock{})
	store.Add("舊的", fixedAt.Add(-time.Hour))

	out := router.Handle(context.Background(), intent.Result{
		Intent:      intent.KindMemo,
		Reply:       "好",
		MemoContent: "下午兩點吃藥",
	}, allKeys, nil)

	if out.Reply != "好，已經幫您記下來：下午兩點吃藥" || out.View != ViewMemo {
		t.Errorf("outcome = %+v", out)
	}
	if out.Memo == nil || out.Memo.DisplayTime != "1/2 13:00" {
		t.Errorf("memo = %+v", out.Memo)
	}

	list := store.List()
	if len(list) != 2 || list[0].Content != "下午兩點吃藥" {
		t.Errorf("list = %+v", list)
	}
}

func TestMemoDefaultContent(t *testing.T) {
	router, _ := newRouter(t, &directions.Mock{})
	out := router.Handle(context.Background(), intent.Result{Intent: intent.KindMemo}, allKeys, nil)
	if out.Reply != "好，已經幫您記下來："+memo.DefaultContent {
		t.Errorf("Reply = %q", out.Reply)
	}
}

func TestChatPassesThrough(t *testing.T) {
	dirs := &directions.Mock{}
	router, store := newRouter(t, dirs)

	out := router.Handle(context.Background(), intent.Result{Intent: intent.KindChat, Reply: "今天天氣很好喔"}, config.Keys{}, nil)
	if out != (Outcome{Reply: "今天天氣很好喔"}) {
		t.Errorf("outcome = %+v", out)
	}
	if len(dirs.Queries()) != 0 || store.Count() != 0 {
		t.Error("chat should have no side effects")
	}
}

func TestScript(t *testing.T) {
	got := Script("台中", transit.Result{
		DepartureTime: "08:00",
		ArrivalTime:   "09:00",
		Fare:          "$700",
		BestExit:      "M3出口",
	})
	want := "好的，幫您查去台中的路線。建議搭 車，08:00發車，預計 09:00 會到。票價大約 $700。到站後，請從 M3出口 出去比較近。"
	if got != want {
		t.Errorf("Script = %q, want %q", got, want)
	}
}

func TestParseView(t *testing.T) {
	for in, want := range map[string]View{"home": ViewHome, "Traffic": ViewTraffic, " memo ": ViewMemo} {
		if v, ok := ParseView(in); !ok || v != want {
			t.Errorf("ParseView(%q) = %q, %v", in, v, ok)
		}
	}
	if _, ok := ParseView("settings"); ok {
		t.Error("unknown view accepted")
	}
}

func TestRouteErrorIsNotSwallowed(t *testing.T) {
	boom := errors.New("network down")
	router, _ := newRouter(t, directions.WithError(boom))
	out := router.Handle(context.Background(), intent.Result{Intent: intent.KindTraffic}, allKeys, nil)
	if out.Status != "查詢失敗: network down" {
		t.Errorf("Status = %q", out.Status)
	}
}

func TestTrafficKeyRejected(t *testing.T) {
	denied := fmt.Errorf("directions: status REQUEST_DENIED: %w", directions.ErrPermissionDenied)
	router, _ := newRouter(t, directions.WithError(denied))

	out := router.Handle(context.Background(), intent.Result{Intent: intent.KindTraffic, Reply: "好"}, allKeys, nil)

	if out.Reply != "" {
		t.Errorf("Reply = %q, nothing should be spoken", out.Reply)
	}
	if out.Status != StatusMapsKeyRejected || !out.NeedsSetup || out.Failed {
		t.Errorf("outcome = %+v", out)
	}
}
