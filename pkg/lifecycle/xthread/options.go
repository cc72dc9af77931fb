package xthread

// Option 配置基础 Factory 的选项函数。
type Option func(*options)

type options struct {
	tracker *Tracker
	prefix  string
}

func defaultOptions() *options {
	return &options{
		tracker: DefaultTracker(),
		prefix:  "thread",
	}
}

// WithTracker 设置非守护线程注册的 Tracker。默认 [DefaultTracker]。
func WithTracker(tr *Tracker) Option {
	return func(o *options) {
		if tr != nil {
			o.tracker = tr
		}
	}
}

// WithNamePrefix 设置基础 Factory 的默认命名前缀，线程名为 "prefix-N"。
// 默认 "thread"。
func WithNamePrefix(prefix string) Option {
	return func(o *options) {
		if prefix != "" {
			o.prefix = prefix
		}
	}
}
