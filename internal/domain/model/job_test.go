package model_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/okian/squadopt/internal/domain/model"
	"github.com/okian/squadopt/internal/domain/optimizer"
	. "github.com/smartystreets/goconvey/convey"
)

func TestJob(t *testing.T) {
	Convey("Given a new job", t, func() {
		deadline := time.Now().Add(time.Minute)
		job := model.NewJob(optimizer.Request{IncludeStartingEleven: true}, deadline, nil)

		Convey("Then it should carry a uuid and a buffered reply channel", func() {
			_, err := uuid.Parse(job.ID)
			So(err, ShouldBeNil)
			So(cap(job.Reply), ShouldEqual, 1)
			So(job.Request.IncludeStartingEleven, ShouldBeTrue)
			So(job.EnqueuedAt.IsZero(), ShouldBeFalse)
		})

		Convey("Then expiry should follow the deadline", func() {
			So(job.Expired(time.Now()), ShouldBeFalse)
			So(job.Expired(deadline), ShouldBeTrue)
			So(job.Expired(deadline.Add(time.Second)), ShouldBeTrue)
		})

		Convey("When two jobs are created", func() {
			other := model.NewJob(optimizer.Request{}, time.Time{}, nil)

			Convey("Then their ids should differ and a zero deadline should never expire", func() {
				So(other.ID, ShouldNotEqual, job.ID)
				So(other.Expired(time.Now().Add(24*time.Hour)), ShouldBeFalse)
			})
		})
	})
}
