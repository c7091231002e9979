package kvstore

import (
	"context"
	"fmt"
	"path"
	"sort"
	"strconv"
	"sync"
	"time"
)

// Memory is an in-process KVStore. It backs single-instance deployments with
// redis disabled and the package tests of every service that takes a KVStore.
type Memory struct {
	mu      sync.Mutex
	strings map[string]string
	lists   map[string][]string
	hashes  map[string]map[string]string
	expires map[string]time.Time
	subs    map[string]map[chan string]struct{}
	now     func() time.Time
}

func NewMemory() *Memory {
	return &Memory{
		strings: make(map[string]string),
		lists:   make(map[string][]string),
		hashes:  make(map[string]map[string]string),
		expires: make(map[string]time.Time),
		subs:    make(map[string]map[chan string]struct{}),
		now:     time.Now,
	}
}

func toString(v interface{}) string {
	switch t := v.(type) {
	case string:
		return t
	case []byte:
		return string(t)
	case bool:
		if t {
			return "1"
		}
		return "0"
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(t), 'f', -1, 32)
	case fmt.Stringer:
		return t.String()
	default:
		return fmt.Sprint(v)
	}
}

// expire drops key when its ttl has passed. Callers hold m.mu.
func (m *Memory) expire(key string) {
	if at, ok := m.expires[key]; ok && !m.now().Before(at) {
		delete(m.strings, key)
		delete(m.expires, key)
	}
}

func (m *Memory) Get(key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.expire(key)
	v, ok := m.strings[key]
	if !ok {
		return "", Nil
	}
	return v, nil
}

func (m *Memory) Set(key string, value interface{}) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.strings[key] = toString(value)
	delete(m.expires, key)
	return nil
}

func (m *Memory) SetNX(key string, value interface{}, ttl time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.expire(key)
	if _, ok := m.strings[key]; ok {
		return false, nil
	}
	m.strings[key] = toString(value)
	if ttl > 0 {
		m.expires[key] = m.now().Add(ttl)
	}
	return true, nil
}

func (m *Memory) Delete(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.strings, key)
	delete(m.lists, key)
	delete(m.hashes, key)
	delete(m.expires, key)
	return nil
}

func (m *Memory) Keys(pattern string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	seen := make(map[string]struct{})
	collect := func(k string) {
		if ok, _ := path.Match(pattern, k); ok {
			seen[k] = struct{}{}
		}
	}
	for k := range m.strings {
		m.expire(k)
	}
	for k := range m.strings {
		collect(k)
	}
	for k := range m.lists {
		collect(k)
	}
	for k := range m.hashes {
		collect(k)
	}
	keys := make([]string, 0, len(seen))
	for k := range seen {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, nil
}

func (m *Memory) LPush(key string, values ...interface{}) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, v := range values {
		m.lists[key] = append([]string{toString(v)}, m.lists[key]...)
	}
	return nil
}

func (m *Memory) RPush(key string, values ...interface{}) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, v := range values {
		m.lists[key] = append(m.lists[key], toString(v))
	}
	return nil
}

func (m *Memory) LPop(key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	l := m.lists[key]
	if len(l) == 0 {
		return "", Nil
	}
	m.lists[key] = l[1:]
	return l[0], nil
}

func (m *Memory) RPop(key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	l := m.lists[key]
	if len(l) == 0 {
		return "", Nil
	}
	m.lists[key] = l[:len(l)-1]
	return l[len(l)-1], nil
}

func (m *Memory) LLen(key string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return int64(len(m.lists[key])), nil
}

// index resolves a redis style list index, where negative values count from
// the tail.
func index(i int64, n int) int64 {
	if i < 0 {
		return int64(n) + i
	}
	return i
}

func (m *Memory) LIndex(key string, i int64) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	l := m.lists[key]
	i = index(i, len(l))
	if i < 0 || i >= int64(len(l)) {
		return "", Nil
	}
	return l[i], nil
}

func (m *Memory) LRange(key string, start, stop int64) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	l := m.lists[key]
	start, stop = index(start, len(l)), index(stop, len(l))
	if start < 0 {
		start = 0
	}
	if stop >= int64(len(l)) {
		stop = int64(len(l)) - 1
	}
	if start > stop {
		return []string{}, nil
	}
	out := make([]string, stop-start+1)
	copy(out, l[start:stop+1])
	return out, nil
}

// LRem removes up to count occurrences of value from the head. A count of zero
// removes all of them.
func (m *Memory) LRem(key string, count int64, value interface{}) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	target := toString(value)
	kept := make([]string, 0, len(m.lists[key]))
	var removed int64
	for _, v := range m.lists[key] {
		if v == target && (count <= 0 || removed < count) {
			removed++
			continue
		}
		kept = append(kept, v)
	}
	m.lists[key] = kept
	return nil
}

func (m *Memory) HSet(key, field string, value interface{}) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	h, ok := m.hashes[key]
	if !ok {
		h = make(map[string]string)
		m.hashes[key] = h
	}
	h[field] = toString(value)
	return nil
}

func (m *Memory) HGet(key, field string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.hashes[key][field]
	if !ok {
		return "", Nil
	}
	return v, nil
}

func (m *Memory) HGetAll(key string) (map[string]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]string, len(m.hashes[key]))
	for k, v := range m.hashes[key] {
		out[k] = v
	}
	return out, nil
}

func (m *Memory) HDel(key string, fields ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, f := range fields {
		delete(m.hashes[key], f)
	}
	return nil
}

func (m *Memory) incrBy(key string, delta int64) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	if v, ok := m.strings[key]; ok {
		parsed, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("value at %s is not an integer", key)
		}
		n = parsed
	}
	n += delta
	m.strings[key] = strconv.FormatInt(n, 10)
	return n, nil
}

func (m *Memory) INCR(key string) (int64, error) {
	return m.incrBy(key, 1)
}

func (m *Memory) DECR(key string) (int64, error) {
	return m.incrBy(key, -1)
}

// Publish never blocks: a subscriber whose buffer is full misses the message,
// the same way a slow redis pubsub client gets disconnected.
func (m *Memory) Publish(channel string, message interface{}) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	msg := toString(message)
	for sub := range m.subs[channel] {
		select {
		case sub <- msg:
		default:
		}
	}
	return nil
}

func (m *Memory) Subscribe(c context.Context, channel string) (<-chan string, error) {
	sub := make(chan string, 64)
	m.mu.Lock()
	if m.subs[channel] == nil {
		m.subs[channel] = make(map[chan string]struct{})
	}
	m.subs[channel][sub] = struct{}{}
	m.mu.Unlock()

	go func() {
		<-c.Done()
		m.mu.Lock()
		delete(m.subs[channel], sub)
		close(sub)
		m.mu.Unlock()
	}()
	return sub, nil
}

func (m *Memory) Close() error {
	return nil
}
