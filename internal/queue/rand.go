// Copyright 2025 James Ross
package queue

import "time"

func randSeed() int64 {
	return time.Now().UnixNano()
}
