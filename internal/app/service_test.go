package service_test

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/Shaiyko/FinalExaminationScoreAssessment/internal/adapters/document"
	"github.com/Shaiyko/FinalExaminationScoreAssessment/internal/adapters/repository"
	service "github.com/Shaiyko/FinalExaminationScoreAssessment/internal/app"
	"github.com/Shaiyko/FinalExaminationScoreAssessment/internal/domain/model"
	"github.com/Shaiyko/FinalExaminationScoreAssessment/internal/domain/scoring"
	"github.com/Shaiyko/FinalExaminationScoreAssessment/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func newService(store repository.Store, opts ...service.Option) *service.Service {
	base := []service.Option{service.WithLogger(logger.Nop()), service.WithStore(store)}
	return service.New(append(base, opts...)...)
}

// blockingDeleteStore holds Delete until release is closed.
type blockingDeleteStore struct {
	repository.Store
	entered chan struct{}
	release chan struct{}
}

func (b *blockingDeleteStore) Delete(ctx context.Context, id string) error {
	close(b.entered)
	<-b.release
	return b.Store.Delete(ctx, id)
}

func fillAll(ctx context.Context, svc *service.Service, id string, s1, s2 int) {
	for r := 0; r < model.RaterCount; r++ {
		_, err := svc.FillSheet(ctx, id, r, model.Sheet1, s1)
		So(err, ShouldBeNil)
		_, err = svc.FillSheet(ctx, id, r, model.Sheet2, s2)
		So(err, ShouldBeNil)
	}
}

func TestServiceLifecycle(t *testing.T) {
	Convey("Given a service that has not started", t, func() {
		ctx := context.Background()
		svc := newService(repository.NewMemoryStore())

		Convey("Then operations should report it", func() {
			_, _, err := svc.CreateSession(ctx, "")
			So(errors.Is(err, service.ErrNotStarted), ShouldBeTrue)
			_, err = svc.Session(ctx, "x")
			So(errors.Is(err, service.ErrNotStarted), ShouldBeTrue)
			So(svc.GetStats(ctx).Started, ShouldBeFalse)
			So(svc.Stop(ctx), ShouldBeNil)
		})

		Convey("When started twice and stopped twice", func() {
			So(svc.Start(ctx), ShouldBeNil)
			So(svc.Start(ctx), ShouldBeNil)
			So(svc.Stop(ctx), ShouldBeNil)
			So(svc.Stop(ctx), ShouldBeNil)
		})
	})
}

func TestServiceSessions(t *testing.T) {
	Convey("Given a started service", t, func() {
		ctx := context.Background()
		store := repository.NewMemoryStore()
		ids := 0
		svc := newService(store, service.WithIDGenerator(func() string {
			ids++
			return fmt.Sprintf("id-%d", ids)
		}))
		So(svc.Start(ctx), ShouldBeNil)
		Reset(func() { _ = svc.Stop(ctx) })

		Convey("When a session is created", func() {
			sess, created, err := svc.CreateSession(ctx, "")
			So(err, ShouldBeNil)
			So(created, ShouldBeTrue)

			Convey("Then it should be empty and retrievable", func() {
				So(sess.ID, ShouldEqual, "id-1")
				got, err := svc.Session(ctx, sess.ID)
				So(err, ShouldBeNil)
				So(got.Raters[2].Name, ShouldEqual, "Rater #3")
				So(scoring.CountFilled(got.Sheets()...), ShouldEqual, 0)
			})

			Convey("Then it should be listed", func() {
				list, err := svc.ListSessions(ctx)
				So(err, ShouldBeNil)
				So(len(list), ShouldEqual, 1)
				So(list[0].ID, ShouldEqual, sess.ID)
			})

			Convey("And every sheet is filled", func() {
				fillAll(ctx, svc, sess.ID, 4, 5)
				sum, err := svc.Evaluate(ctx, sess.ID)

				Convey("Then the final grade should be derived", func() {
					So(err, ShouldBeNil)
					So(sum.Complete, ShouldBeTrue)
					So(*sum.FinalScore, ShouldAlmostEqual, 4.65, 1e-9)
					So(sum.Grade.Letter, ShouldEqual, "A")
					So(sum.SessionID, ShouldEqual, sess.ID)
					So(sum.Revision, ShouldEqual, int64(6))
				})
			})

			Convey("And one item is cleared after filling", func() {
				fillAll(ctx, svc, sess.ID, 4, 5)
				_, err := svc.SetScore(ctx, sess.ID, 1, model.Sheet2, 10, 0)
				So(err, ShouldBeNil)
				sum, _ := svc.Evaluate(ctx, sess.ID)

				Convey("Then the session should be incomplete again", func() {
					So(sum.Complete, ShouldBeFalse)
					So(sum.Filled, ShouldEqual, 113)
					So(sum.FinalScore, ShouldBeNil)
				})
			})

			Convey("And an edit is out of range", func() {
				_, errRater := svc.SetScore(ctx, sess.ID, 3, model.Sheet1, 0, 4)
				_, errItem := svc.SetScore(ctx, sess.ID, 0, model.Sheet1, 14, 4)
				_, errScore := svc.SetScore(ctx, sess.ID, 0, model.Sheet1, 0, 6)
				_, errFill := svc.FillSheet(ctx, sess.ID, 0, model.Sheet2, 0)
				_, errSheet := svc.ClearSheet(ctx, sess.ID, 0, model.SheetID("sheet3"))

				Convey("Then the domain errors should surface", func() {
					So(errors.Is(errRater, model.ErrRaterIndex), ShouldBeTrue)
					So(errors.Is(errItem, model.ErrItemIndex), ShouldBeTrue)
					So(errors.Is(errScore, model.ErrScoreRange), ShouldBeTrue)
					So(errors.Is(errFill, model.ErrScoreRange), ShouldBeTrue)
					So(errors.Is(errSheet, model.ErrSheet), ShouldBeTrue)
				})

				Convey("Then the revision should not move", func() {
					got, _ := svc.Session(ctx, sess.ID)
					So(got.Revision, ShouldEqual, sess.Revision)
				})
			})

			Convey("And the student is updated then the session reset", func() {
				_, err := svc.UpdateStudent(ctx, sess.ID, model.StudentInfo{Name: "Ada"})
				So(err, ShouldBeNil)
				_, err = svc.FillSheet(ctx, sess.ID, 0, model.Sheet1, 3)
				So(err, ShouldBeNil)
				got, err := svc.ResetSession(ctx, sess.ID)

				Convey("Then everything should be cleared", func() {
					So(err, ShouldBeNil)
					So(got.Student, ShouldResemble, model.StudentInfo{})
					So(scoring.CountFilled(got.Sheets()...), ShouldEqual, 0)
					So(got.Revision, ShouldEqual, int64(3))
				})
			})

			Convey("And it is exported", func() {
				_, err := svc.UpdateStudent(ctx, sess.ID, model.StudentInfo{Name: "Ada", Department: "CS"})
				So(err, ShouldBeNil)
				var buf bytes.Buffer
				name, err := svc.Export(ctx, sess.ID, &buf)

				Convey("Then the document should name the student", func() {
					So(err, ShouldBeNil)
					So(name, ShouldStartWith, "Ada-CS-")
					So(name, ShouldEndWith, ".json")
					doc, err := document.Decode(&buf)
					So(err, ShouldBeNil)
					So(doc.Student.Name, ShouldEqual, "Ada")
				})
			})

			Convey("And it is deleted", func() {
				So(svc.DeleteSession(ctx, sess.ID), ShouldBeNil)

				Convey("Then it should be gone everywhere", func() {
					_, err := svc.Session(ctx, sess.ID)
					So(errors.Is(err, service.ErrSessionNotFound), ShouldBeTrue)
					So(errors.Is(svc.DeleteSession(ctx, sess.ID), service.ErrSessionNotFound), ShouldBeTrue)
					So(svc.Stop(ctx), ShouldBeNil)
					So(store.Count(ctx), ShouldEqual, 0)
				})
			})
		})

		Convey("When creating twice with the same Idempotency-Key", func() {
			first, created1, err1 := svc.CreateSession(ctx, "key")
			second, created2, err2 := svc.CreateSession(ctx, "key")

			Convey("Then the first session should be returned again", func() {
				So(err1, ShouldBeNil)
				So(err2, ShouldBeNil)
				So(created1, ShouldBeTrue)
				So(created2, ShouldBeFalse)
				So(second.ID, ShouldEqual, first.ID)
			})

			Convey("And after the session is deleted the key should create anew", func() {
				So(svc.DeleteSession(ctx, first.ID), ShouldBeNil)
				third, created, err := svc.CreateSession(ctx, "key")
				So(err, ShouldBeNil)
				So(created, ShouldBeTrue)
				So(third.ID, ShouldNotEqual, first.ID)
			})
		})

		Convey("When reading an unknown session", func() {
			_, err := svc.Session(ctx, "nope")
			So(errors.Is(err, service.ErrSessionNotFound), ShouldBeTrue)
			_, err = svc.SetScore(ctx, "nope", 0, model.Sheet1, 0, 1)
			So(errors.Is(err, service.ErrSessionNotFound), ShouldBeTrue)
		})
	})
}

func TestServiceImport(t *testing.T) {
	Convey("Given a started service with a small import limit", t, func() {
		ctx := context.Background()
		svc := newService(repository.NewMemoryStore(), service.WithMaxImportBytes(4096))
		So(svc.Start(ctx), ShouldBeNil)
		Reset(func() { _ = svc.Stop(ctx) })

		valid := `{"student":{"name":"Ada"},"raters":[{"name":"Dr. A"},{},{}]}`

		Convey("When importing a valid document", func() {
			sess, created, err := svc.ImportSession(ctx, "imp", strings.NewReader(valid))

			Convey("Then a session should hold its content", func() {
				So(err, ShouldBeNil)
				So(created, ShouldBeTrue)
				So(sess.Student.Name, ShouldEqual, "Ada")
				So(sess.Raters[0].Name, ShouldEqual, "Dr. A")
			})
		})

		Convey("When importing an invalid document with a key", func() {
			_, _, err := svc.ImportSession(ctx, "imp", strings.NewReader(`{"raters":[{}]}`))

			Convey("Then a parse error should be returned", func() {
				var pe *document.ParseError
				So(errors.As(err, &pe), ShouldBeTrue)
				So(pe.Field, ShouldEqual, "raters")
			})

			Convey("Then the key should still be usable", func() {
				_, created, err := svc.ImportSession(ctx, "imp", strings.NewReader(valid))
				So(err, ShouldBeNil)
				So(created, ShouldBeTrue)
			})
		})

		Convey("When the document exceeds the limit", func() {
			big := `{"student":{"name":"` + strings.Repeat("x", 5000) + `"}}`
			_, _, err := svc.ImportSession(ctx, "", strings.NewReader(big))
			So(errors.Is(err, service.ErrImportTooLarge), ShouldBeTrue)
		})

		Convey("When calculating a document without a session", func() {
			sum, err := svc.Calculate(ctx, strings.NewReader(valid))

			Convey("Then it should be evaluated but not stored", func() {
				So(err, ShouldBeNil)
				So(sum.Complete, ShouldBeFalse)
				So(sum.Progress, ShouldEqual, "0/114")
				So(sum.SessionID, ShouldBeEmpty)
				list, _ := svc.ListSessions(ctx)
				So(len(list), ShouldEqual, 0)
			})
		})
	})
}

func TestServiceAutosave(t *testing.T) {
	Convey("Given a service with a tiny autosave queue", t, func() {
		ctx := context.Background()
		store := repository.NewMemoryStore()
		svc := newService(store, service.WithQueueSize(1), service.WithWorkerCount(1), service.WithPolicy(scoring.PolicyStrict))
		So(svc.Start(ctx), ShouldBeNil)

		Convey("When many edits are made and the service stops", func() {
			sess, _, err := svc.CreateSession(ctx, "")
			So(err, ShouldBeNil)
			var last *model.Session
			for i := 0; i < model.Sheet2Items; i++ {
				last, err = svc.SetScore(ctx, sess.ID, 2, model.Sheet2, i, 1+i%5)
				So(err, ShouldBeNil)
			}
			So(svc.Stop(ctx), ShouldBeNil)

			Convey("Then the store should hold the newest revision", func() {
				got, err := store.Get(ctx, sess.ID)
				So(err, ShouldBeNil)
				So(got.Revision, ShouldEqual, last.Revision)
				So(got.Raters[2].Sheet2, ShouldResemble, last.Raters[2].Sheet2)
			})

			Convey("Then a new service over the same store should load it", func() {
				again := newService(store)
				So(again.Start(ctx), ShouldBeNil)
				defer again.Stop(ctx)

				got, err := again.Session(ctx, sess.ID)
				So(err, ShouldBeNil)
				So(got.Revision, ShouldEqual, last.Revision)

				st := again.GetStats(ctx)
				So(st.Started, ShouldBeTrue)
				So(st.StoredSessions, ShouldEqual, 1)
				So(st.LiveSessions, ShouldEqual, 1)
			})
		})
	})
}

func TestServiceDeleteDuringEdit(t *testing.T) {
	Convey("Given a session persisted by an earlier service", t, func() {
		ctx := context.Background()
		mem := repository.NewMemoryStore()
		first := newService(mem)
		So(first.Start(ctx), ShouldBeNil)
		sess, _, err := first.CreateSession(ctx, "")
		So(err, ShouldBeNil)
		So(first.Stop(ctx), ShouldBeNil)

		store := &blockingDeleteStore{Store: mem, entered: make(chan struct{}), release: make(chan struct{})}
		svc := newService(store)
		So(svc.Start(ctx), ShouldBeNil)

		Convey("When an edit arrives while the store delete is in flight", func() {
			deleted := make(chan error, 1)
			go func() { deleted <- svc.DeleteSession(ctx, sess.ID) }()
			<-store.entered

			edited := make(chan error, 1)
			go func() {
				_, err := svc.SetScore(ctx, sess.ID, 0, model.Sheet1, 0, 5)
				edited <- err
			}()
			time.Sleep(20 * time.Millisecond)
			close(store.release)

			So(<-deleted, ShouldBeNil)
			editErr := <-edited
			So(svc.Stop(ctx), ShouldBeNil)

			Convey("Then the edit should miss and the session should stay deleted", func() {
				So(errors.Is(editErr, service.ErrSessionNotFound), ShouldBeTrue)
				_, err := mem.Get(ctx, sess.ID)
				So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)
			})
		})
	})
}
