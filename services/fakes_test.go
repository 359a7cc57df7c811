package services

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"learnhub-platform/models"
)

// In-memory test doubles shared by the service tests.

type fakeStore struct {
	lessons     map[primitive.ObjectID]*models.Lesson
	courses     map[primitive.ObjectID]*models.CourseContext
	transcripts map[primitive.ObjectID]*models.Transcript
	chunks      []models.Chunk

	transcriptErr error
	chunksErr     error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		lessons:     make(map[primitive.ObjectID]*models.Lesson),
		courses:     make(map[primitive.ObjectID]*models.CourseContext),
		transcripts: make(map[primitive.ObjectID]*models.Transcript),
	}
}

func (fs *fakeStore) GetLesson(_ context.Context, lessonID primitive.ObjectID) (*models.Lesson, error) {
	if l, ok := fs.lessons[lessonID]; ok {
		return l, nil
	}
	return nil, ErrNotFound
}

func (fs *fakeStore) ListLessonsByCourse(_ context.Context, courseID primitive.ObjectID) ([]models.Lesson, error) {
	var out []models.Lesson
	for _, l := range fs.lessons {
		if l.CourseID == courseID {
			out = append(out, *l)
		}
	}
	return out, nil
}

func (fs *fakeStore) GetCourseContext(_ context.Context, courseID primitive.ObjectID) (*models.CourseContext, error) {
	if c, ok := fs.courses[courseID]; ok {
		return c, nil
	}
	return nil, ErrNotFound
}

func (fs *fakeStore) GetTranscript(_ context.Context, lessonID primitive.ObjectID) (*models.Transcript, error) {
	if t, ok := fs.transcripts[lessonID]; ok {
		return t, nil
	}
	return nil, ErrNotFound
}

func (fs *fakeStore) CreateTranscript(_ context.Context, t *models.Transcript) error {
	if fs.transcriptErr != nil {
		return fs.transcriptErr
	}
	if t.ID.IsZero() {
		t.ID = primitive.NewObjectID()
	}
	fs.transcripts[t.LessonID] = t
	return nil
}

func (fs *fakeStore) CreateChunks(_ context.Context, chunks []models.Chunk) error {
	if fs.chunksErr != nil {
		return fs.chunksErr
	}
	fs.chunks = append(fs.chunks, chunks...)
	return nil
}

func (fs *fakeStore) GetChunksByLesson(_ context.Context, lessonID primitive.ObjectID) ([]models.Chunk, error) {
	var out []models.Chunk
	for _, c := range fs.chunks {
		if c.LessonID == lessonID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (fs *fakeStore) GetChunksByCourse(_ context.Context, courseID primitive.ObjectID) ([]models.Chunk, error) {
	var out []models.Chunk
	for _, c := range fs.chunks {
		if l, ok := fs.lessons[c.LessonID]; ok && l.CourseID == courseID {
			out = append(out, c)
		}
	}
	return out, nil
}

// fakeEmbedder returns a fixed vector per input, or fails.
type fakeEmbedder struct {
	vector []float32
	err    error
	calls  int
	short  bool // return one vector fewer than requested
}

func (fe *fakeEmbedder) Name() string { return "fake-embeddings" }

func (fe *fakeEmbedder) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	fe.calls++
	if fe.err != nil {
		return nil, fe.err
	}
	n := len(texts)
	if fe.short && n > 0 {
		n--
	}
	out := make([][]float32, n)
	for i := range out {
		out[i] = fe.vector
	}
	return out, nil
}

type fakeAnswerer struct {
	reply string
	err   error
	calls int

	lastSystem   string
	lastQuestion string
}

func (fa *fakeAnswerer) Name() string { return "fake-answers" }

func (fa *fakeAnswerer) GenerateAnswer(_ context.Context, system, question string) (string, error) {
	fa.calls++
	fa.lastSystem = system
	fa.lastQuestion = question
	if fa.err != nil {
		return "", fa.err
	}
	return fa.reply, nil
}

// fakeCache records what the assistant stores so tests can assert which
// answers entered the cache.
type fakeCache struct {
	entries map[string]*models.Answer
	sets    int
}

func newFakeCache() *fakeCache {
	return &fakeCache{entries: make(map[string]*models.Answer)}
}

func (fc *fakeCache) key(scope Scope, question string) string {
	return scope.CourseID.Hex() + "|" + scope.LessonID.Hex() + "|" + question
}

func (fc *fakeCache) Get(_ context.Context, scope Scope, question string) (*models.Answer, bool) {
	a, ok := fc.entries[fc.key(scope, question)]
	return a, ok
}

func (fc *fakeCache) Set(_ context.Context, scope Scope, question string, answer *models.Answer) {
	fc.sets++
	fc.entries[fc.key(scope, question)] = answer
}

type fakeCaptions struct {
	text  string
	err   error
	calls int
}

func (fc *fakeCaptions) Fetch(_ context.Context, videoID, language string) (string, error) {
	fc.calls++
	return fc.text, fc.err
}

// gatedCaptions blocks every fetch until released, for tests that need an
// ingestion to be in flight at a known moment.
type gatedCaptions struct {
	release chan struct{}
	text    string
	calls   int
}

func (gc *gatedCaptions) Fetch(_ context.Context, videoID, language string) (string, error) {
	gc.calls++
	<-gc.release
	return gc.text, nil
}

type fakeASR struct {
	text  string
	err   error
	calls int
}

func (fa *fakeASR) Transcribe(_ context.Context, videoID string) (string, error) {
	fa.calls++
	return fa.text, fa.err
}

var errBackend = errors.New("backend blew up")
