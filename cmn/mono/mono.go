//go:build !mono

// Package mono provides low-level monotonic time. NanoTime is used wherever
// this module needs a cheap, wraparound-free clock for deadlines and
// since-checks (path expiry in pathstore, due-time scheduling in hk) without
// paying for time.Now()'s wall-clock reconciliation.
/*
 * Copyright (c) 2018-2021, NVIDIA CORPORATION. All rights reserved.
 */
package mono

import "time"

func NanoTime() int64 { return time.Now().UnixNano() }
