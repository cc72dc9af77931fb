package xring

import "errors"

// ErrInvalidCapacity 表示容量不在 [1, MaxCapacity] 范围内。
var ErrInvalidCapacity = errors.New("xring: invalid capacity")

// ErrNilRing 表示 NewHandler 传入的 ring 为 nil。
var ErrNilRing = errors.New("xring: ring is nil")
