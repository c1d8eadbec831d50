package processor

import (
	"CuryDashboard/src/storage"
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-gota/gota/dataframe"
)

// ErrNotLoaded 还没有成功加载过数据
var ErrNotLoaded = errors.New("dataset not loaded")

// Loader 读取原始数据(全部为字符串列)
type Loader func(ctx context.Context) (dataframe.DataFrame, error)

// ReloadEvent 每次重新加载后发给订阅者
type ReloadEvent struct {
	Source   string        `json:"source"` // 触发来源: startup/cron/watch/signal/email
	Rows     int           `json:"rows"`
	RawRows  int           `json:"raw_rows"`
	Duration time.Duration `json:"duration"`
	At       time.Time     `json:"at"`
	Err      string        `json:"error,omitempty"`
}

// Store 保存当前的清洗结果，线程安全
// 重新加载失败时保留上一次的数据
type Store struct {
	load   Loader
	opts   CleanOptions
	logger *storage.Logger

	mu       sync.RWMutex // 保护batch和last
	batch    Batch
	loaded   bool
	last     ReloadEvent
	reloadMu sync.Mutex // 同一时间只允许一个reload

	subMu       sync.Mutex
	subscribers []chan ReloadEvent
}

func NewStore(load Loader, opts CleanOptions, logger *storage.Logger) *Store {
	return &Store{
		load:   load,
		opts:   opts,
		logger: logger,
	}
}

// Current 返回当前数据，未加载时返回ErrNotLoaded
func (s *Store) Current() (Batch, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.loaded {
		return Batch{}, ErrNotLoaded
	}
	return s.batch, nil
}

// LastReload 最近一次加载的结果
func (s *Store) LastReload() ReloadEvent {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.last
}

// Reload 读取并清洗数据，成功后替换当前数据
func (s *Store) Reload(ctx context.Context, source string) error {
	s.reloadMu.Lock()
	defer s.reloadMu.Unlock()

	t1 := time.Now()
	event := ReloadEvent{Source: source, At: t1}

	batch, raw, err := s.loadAndClean(ctx)
	event.Duration = time.Since(t1)
	event.RawRows = raw
	if err != nil {
		event.Err = err.Error()
		s.setLast(event)
		s.logger.Error(fmt.Sprintf("加载数据失败(%s): %v", source, err))
		s.publish(event)
		return err
	}

	event.Rows = batch.Len()
	s.mu.Lock()
	s.batch = batch
	s.loaded = true
	s.last = event
	s.mu.Unlock()

	s.logger.Info(fmt.Sprintf("数据已加载(%s): 原始%d行, 清洗后%d行, 耗时%v", source, raw, event.Rows, event.Duration))
	s.publish(event)
	return nil
}

func (s *Store) loadAndClean(ctx context.Context) (Batch, int, error) {
	if err := ctx.Err(); err != nil {
		return Batch{}, 0, err
	}
	raw, err := s.load(ctx)
	if err != nil {
		return Batch{}, 0, fmt.Errorf("load dataset: %w", err)
	}
	batch, err := CleanOrders(raw, s.opts)
	if err != nil {
		return Batch{}, raw.Nrow(), err
	}
	return batch, raw.Nrow(), nil
}

func (s *Store) setLast(event ReloadEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.last = event
}

// Subscribe 订阅重新加载事件
func (s *Store) Subscribe() <-chan ReloadEvent {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	ch := make(chan ReloadEvent, 8)
	s.subscribers = append(s.subscribers, ch)
	return ch
}

// Unsubscribe 取消订阅并关闭通道
func (s *Store) Unsubscribe(sub <-chan ReloadEvent) {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	for i, ch := range s.subscribers {
		if ch == sub {
			s.subscribers = append(s.subscribers[:i], s.subscribers[i+1:]...)
			close(ch)
			return
		}
	}
}

func (s *Store) publish(event ReloadEvent) {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	for _, ch := range s.subscribers {
		select {
		case ch <- event:
		default: // 订阅者处理不过来时丢弃
		}
	}
}
