package abrouter

import "time"

func pastTime() time.Time   { return time.Now().Add(-time.Hour) }
func pastTime2() time.Time  { return time.Now().Add(-2 * time.Hour) }
func futureTime() time.Time { return time.Now().Add(time.Hour) }
