package xring

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"
)

// httpEntry 是 Entry 的 JSON 表示。
type httpEntry struct {
	Time    time.Time      `json:"time"`
	Level   string         `json:"level"`
	Message string         `json:"msg"`
	Attrs   map[string]any `json:"attrs,omitempty"`
}

// httpView 是 HTTPHandler 的响应体。
type httpView struct {
	Capacity int         `json:"capacity"`
	Retained int         `json:"retained"`
	Total    uint64      `json:"total"`
	Entries  []httpEntry `json:"entries"`
}

// HTTPHandler 返回以 JSON 输出最近日志记录的运维视图，最新的在前。
//
// 查询参数：
//   - limit: 最多返回的条数，缺省为全部
//   - level: 最低级别（debug/info/warn/error，大小写不敏感），缺省不过滤
//
// 仅支持 GET/HEAD，其他方法返回 405；参数非法返回 400。
func HTTPHandler(ring *Ring[Entry]) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet && r.Method != http.MethodHead {
			w.Header().Set("Allow", "GET, HEAD")
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		if ring == nil {
			http.Error(w, ErrNilRing.Error(), http.StatusInternalServerError)
			return
		}

		q := r.URL.Query()
		limit := -1
		if s := q.Get("limit"); s != "" {
			n, err := strconv.Atoi(s)
			if err != nil || n < 0 {
				http.Error(w, "invalid limit", http.StatusBadRequest)
				return
			}
			limit = n
		}
		minLevel := slog.Level(-1 << 31)
		if s := q.Get("level"); s != "" {
			if err := minLevel.UnmarshalText([]byte(s)); err != nil {
				http.Error(w, "invalid level", http.StatusBadRequest)
				return
			}
		}

		// 先过滤再截断，保证 limit 作用于过滤后的结果
		snap, total := ring.lastWithTotal(-1)
		view := httpView{
			Capacity: ring.Cap(),
			Retained: len(snap),
			Total:    total,
			Entries:  make([]httpEntry, 0, len(snap)),
		}
		for _, e := range snap {
			if e.Level < minLevel {
				continue
			}
			if limit >= 0 && len(view.Entries) >= limit {
				break
			}
			view.Entries = append(view.Entries, httpEntry{
				Time:    e.Time,
				Level:   e.Level.String(),
				Message: e.Message,
				Attrs:   e.AttrMap(),
			})
		}

		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.Header().Set("Cache-Control", "no-store")
		if r.Method == http.MethodHead {
			w.WriteHeader(http.StatusOK)
			return
		}
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		_ = enc.Encode(view) //nolint:errcheck // 客户端断开时无可补救
	})
}
