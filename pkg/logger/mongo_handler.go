// MongoHandler ships log records at or above a minimum level to a MongoDB
// collection. Records are queued on a buffered channel and written in
// batches by one background goroutine; a full queue drops the record so the
// request path never blocks on logging.

package logger

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	mongoQueueSize = 4096
	mongoBatchSize = 50
	mongoDrainTick = 2 * time.Second
)

// LogDocument is the shape written to MongoDB.
type LogDocument struct {
	Time      time.Time `bson:"time"`
	Level     string    `bson:"level"`
	Msg       string    `bson:"msg"`
	RequestID string    `bson:"request_id,omitempty"`
	Attrs     bson.M    `bson:"attrs,omitempty"`
}

// batchWriter is the subset of *mongo.Collection the sink needs.
type batchWriter interface {
	InsertMany(ctx context.Context, docs []interface{}) error
}

type collectionWriter struct{ col *mongo.Collection }

func (c collectionWriter) InsertMany(ctx context.Context, docs []interface{}) error {
	_, err := c.col.InsertMany(ctx, docs)
	return err
}

// mongoSink owns the queue and the drain goroutine shared by every handler
// derived through WithAttrs/WithGroup.
type mongoSink struct {
	writer  batchWriter
	queue   chan LogDocument
	stop    chan struct{}
	stopped chan struct{}
	once    sync.Once
}

func newMongoSink(w batchWriter) *mongoSink {
	s := &mongoSink{
		writer:  w,
		queue:   make(chan LogDocument, mongoQueueSize),
		stop:    make(chan struct{}),
		stopped: make(chan struct{}),
	}
	go s.drainLoop()
	return s
}

func (s *mongoSink) enqueue(doc LogDocument) {
	select {
	case s.queue <- doc:
	default:
	}
}

func (s *mongoSink) drainLoop() {
	defer close(s.stopped)

	ticker := time.NewTicker(mongoDrainTick)
	defer ticker.Stop()

	batch := make([]interface{}, 0, mongoBatchSize)
	flush := func() {
		if len(batch) == 0 {
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.writer.InsertMany(ctx, batch) // a failing sink must not take the app down
		batch = batch[:0]
	}

	for {
		select {
		case doc := <-s.queue:
			batch = append(batch, doc)
			if len(batch) >= mongoBatchSize {
				flush()
			}
		case <-ticker.C:
			flush()
		case <-s.stop:
			for {
				select {
				case doc := <-s.queue:
					batch = append(batch, doc)
					if len(batch) >= mongoBatchSize {
						flush()
					}
				default:
					flush()
					return
				}
			}
		}
	}
}

func (s *mongoSink) close() {
	s.once.Do(func() { close(s.stop) })
	<-s.stopped
}

// MongoHandler is a slog.Handler writing to MongoDB asynchronously.
type MongoHandler struct {
	sink   *mongoSink
	client *mongo.Client
	min    slog.Level
	attrs  []slog.Attr
	prefix string
}

// NewMongoHandler connects to uri and returns a handler that stores records
// at or above min in db.collection. Call Close on shutdown to flush.
func NewMongoHandler(uri, db, collection string, min slog.Level) (*MongoHandler, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().
		ApplyURI(uri).
		SetConnectTimeout(5*time.Second).
		SetServerSelectionTimeout(5*time.Second).
		SetMaxPoolSize(4))
	if err != nil {
		return nil, fmt.Errorf("logger: mongo connect: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("logger: mongo ping: %w", err)
	}

	col := client.Database(db).Collection(collection)
	_, _ = col.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "time", Value: -1}},
	})

	h := newMongoHandler(collectionWriter{col: col}, min)
	h.client = client
	return h, nil
}

func newMongoHandler(w batchWriter, min slog.Level) *MongoHandler {
	return &MongoHandler{sink: newMongoSink(w), min: min}
}

func (h *MongoHandler) Enabled(_ context.Context, l slog.Level) bool { return l >= h.min }

func (h *MongoHandler) Handle(_ context.Context, r slog.Record) error {
	doc := LogDocument{
		Time:  r.Time,
		Level: r.Level.String(),
		Msg:   r.Message,
		Attrs: bson.M{},
	}

	add := func(key string, a slog.Attr) {
		if a.Key == "request_id" && key == "" {
			doc.RequestID = a.Value.String()
			return
		}
		doc.Attrs[key+a.Key] = a.Value.Resolve().Any()
	}
	for _, a := range h.attrs {
		add("", a)
	}
	r.Attrs(func(a slog.Attr) bool {
		add(h.prefix, a)
		return true
	})
	if len(doc.Attrs) == 0 {
		doc.Attrs = nil
	}

	h.sink.enqueue(doc)
	return nil
}

func (h *MongoHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := *h
	next.attrs = make([]slog.Attr, 0, len(h.attrs)+len(attrs))
	next.attrs = append(next.attrs, h.attrs...)
	for _, a := range attrs {
		if h.prefix != "" {
			a.Key = h.prefix + a.Key
		}
		next.attrs = append(next.attrs, a)
	}
	return &next
}

func (h *MongoHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	next := *h
	next.prefix = h.prefix + strings.TrimSuffix(name, ".") + "."
	return &next
}

// Close flushes queued records and disconnects. Safe to call more than once.
func (h *MongoHandler) Close() error {
	h.sink.close()
	if h.client == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return h.client.Disconnect(ctx)
}
