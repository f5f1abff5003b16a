package apiclient

import (
	"context"
	"fmt"
	"net/http"

	"github.com/3bdulrahman-M3/Front/core"
)

type (
	Category struct {
		ID          int    `json:"id"`
		Name        string `json:"name"`
		Description string `json:"description,omitempty"`
	}

	Course struct {
		ID           int     `json:"id"`
		Title        string  `json:"title"`
		Description  string  `json:"description"`
		Price        float64 `json:"price,string"`
		Status       string  `json:"status,omitempty"`
		Category     int     `json:"category,omitempty"`
		InstructorID int     `json:"instructor,omitempty"`
		Image        string  `json:"image,omitempty"`
		CreatedAt    string  `json:"created_at,omitempty"`
	}

	// CourseFilter is the query of the course list.
	CourseFilter struct {
		Search   string
		Category []int
		Status   string
		Page     int
	}
)

func (f CourseFilter) params() Params {
	p := Params{"search": f.Search, "category": f.Category, "status": f.Status}
	if f.Page > 0 {
		p["page"] = f.Page
	}
	return p
}

func (c *Client) Courses(ctx context.Context, filter CourseFilter) (core.Page[Course], error) {
	return call[core.Page[Course]](ctx, c, http.MethodGet, "courses/", filter.params(), nil)
}

func (c *Client) Categories(ctx context.Context) (core.Page[Category], error) {
	return call[core.Page[Category]](ctx, c, http.MethodGet, "courses/categories/", nil, nil)
}

func (c *Client) Course(ctx context.Context, id int) (Course, error) {
	return call[Course](ctx, c, http.MethodGet, fmt.Sprintf("courses/%d/", id), nil, nil)
}

// CreateCourse posts the course form, which may carry media files.
func (c *Client) CreateCourse(ctx context.Context, form *Form) (Course, error) {
	return call[Course](ctx, c, http.MethodPost, "courses/create/", nil, form)
}

// UpdateCourse takes either a *Form (with media) or any JSON encodable value.
func (c *Client) UpdateCourse(ctx context.Context, id int, data interface{}) (Course, error) {
	return call[Course](ctx, c, http.MethodPut, fmt.Sprintf("courses/%d/update/", id), nil, data)
}

func (c *Client) DeleteCourse(ctx context.Context, id int) error {
	return c.delete(ctx, fmt.Sprintf("courses/%d/delete/", id))
}

func (c *Client) CourseRecommendations(ctx context.Context, id int) (core.Page[Course], error) {
	return call[core.Page[Course]](ctx, c, http.MethodGet, fmt.Sprintf("courses/%d/recommend/", id), nil, nil)
}

func (c *Client) UserRecommendations(ctx context.Context) (core.Page[Course], error) {
	return call[core.Page[Course]](ctx, c, http.MethodGet, "courses/recommend/", nil, nil)
}

// enrollments

func (c *Client) Enroll(ctx context.Context, courseID int, data Object) (Object, error) {
	return call[Object](ctx, c, http.MethodPost, fmt.Sprintf("courses/%d/enroll/", courseID), nil, data)
}

func (c *Client) Withdraw(ctx context.Context, courseID int) (Object, error) {
	return call[Object](ctx, c, http.MethodPost, fmt.Sprintf("courses/%d/withdraw/", courseID), nil, nil)
}

func (c *Client) StudentEnrollments(ctx context.Context, studentID int) (core.Page[Object], error) {
	return call[core.Page[Object]](ctx, c, http.MethodGet, fmt.Sprintf("courses/student/%d/enrollments/", studentID), nil, nil)
}

func (c *Client) InstructorCourses(ctx context.Context, instructorID int) ([]Course, error) {
	res, err := call[struct {
		Courses []Course `json:"courses"`
	}](ctx, c, http.MethodGet, fmt.Sprintf("courses/instructor/%d/courses/", instructorID), nil, nil)
	return res.Courses, err
}

// approvals

func (c *Client) PendingCourses(ctx context.Context) (core.Page[Course], error) {
	return call[core.Page[Course]](ctx, c, http.MethodGet, "courses/pending/", nil, nil)
}

func (c *Client) ApproveCourse(ctx context.Context, id int) (Object, error) {
	return call[Object](ctx, c, http.MethodPost, fmt.Sprintf("courses/%d/approve/", id), nil, nil)
}

func (c *Client) RejectCourse(ctx context.Context, id int, reason string) (Object, error) {
	return call[Object](ctx, c, http.MethodPost, fmt.Sprintf("courses/%d/reject/", id), nil, map[string]string{"reason": reason})
}

// videos

func (c *Client) CourseVideos(ctx context.Context, courseID int) (core.Page[Object], error) {
	return call[core.Page[Object]](ctx, c, http.MethodGet, fmt.Sprintf("courses/%d/videos/", courseID), nil, nil)
}

// CreateCourseVideo takes either a *Form (with the video file) or any JSON encodable value.
func (c *Client) CreateCourseVideo(ctx context.Context, courseID int, data interface{}) (Object, error) {
	return call[Object](ctx, c, http.MethodPost, fmt.Sprintf("courses/%d/videos/create/", courseID), nil, data)
}

func (c *Client) UpdateVideo(ctx context.Context, videoID int, data interface{}) (Object, error) {
	return call[Object](ctx, c, http.MethodPut, fmt.Sprintf("courses/videos/%d/", videoID), nil, data)
}

func (c *Client) DeleteVideo(ctx context.Context, videoID int) error {
	return c.delete(ctx, fmt.Sprintf("courses/videos/%d/", videoID))
}

// exams

func (c *Client) CreateExam(ctx context.Context, exam Object) (Object, error) {
	return call[Object](ctx, c, http.MethodPost, "exams/exams/", nil, exam)
}

// reviews

type Review struct {
	ID        int    `json:"id"`
	Rating    int    `json:"rating"`
	Comment   string `json:"comment"`
	UserName  string `json:"user_name,omitempty"`
	CreatedAt string `json:"created_at,omitempty"`
}

func (c *Client) CourseReviews(ctx context.Context, courseID int, query Params) (core.Page[Review], error) {
	return call[core.Page[Review]](ctx, c, http.MethodGet, fmt.Sprintf("courses/%d/reviews/list/", courseID), query, nil)
}

func (c *Client) CreateReview(ctx context.Context, courseID int, r Review) (Review, error) {
	return call[Review](ctx, c, http.MethodPost, fmt.Sprintf("courses/%d/reviews/", courseID), nil, r)
}

func (c *Client) EditReview(ctx context.Context, id int, r Review) (Review, error) {
	return call[Review](ctx, c, http.MethodPut, fmt.Sprintf("courses/reviews/%d/", id), nil, r)
}

func (c *Client) DeleteReview(ctx context.Context, id int) error {
	return c.delete(ctx, fmt.Sprintf("courses/reviews/%d/delete/", id))
}

// notes

type Note struct {
	ID        int    `json:"id"`
	Content   string `json:"content"`
	VideoID   int    `json:"video,omitempty"`
	CreatedAt string `json:"created_at,omitempty"`
}

func (c *Client) CourseNotes(ctx context.Context, courseID int, query Params) (core.Page[Note], error) {
	return call[core.Page[Note]](ctx, c, http.MethodGet, fmt.Sprintf("courses/%d/notes/list/", courseID), query, nil)
}

func (c *Client) CreateNote(ctx context.Context, courseID int, n Note) (Note, error) {
	return call[Note](ctx, c, http.MethodPost, fmt.Sprintf("courses/%d/notes/", courseID), nil, n)
}

func (c *Client) EditNote(ctx context.Context, id int, n Note) (Note, error) {
	return call[Note](ctx, c, http.MethodPut, fmt.Sprintf("courses/notes/%d/", id), nil, n)
}

func (c *Client) DeleteNote(ctx context.Context, id int) error {
	return c.delete(ctx, fmt.Sprintf("courses/notes/%d/delete/", id))
}

// payments

func (c *Client) CreatePaymentIntent(ctx context.Context, courseID int, data Object) (Object, error) {
	return call[Object](ctx, c, http.MethodPost, fmt.Sprintf("courses/%d/create_payment_intent/", courseID), nil, data)
}

func (c *Client) Transactions(ctx context.Context, query Params) (core.Page[Object], error) {
	return call[core.Page[Object]](ctx, c, http.MethodGet, "transactions/", query, nil)
}

func (c *Client) Transaction(ctx context.Context, id int) (Object, error) {
	return call[Object](ctx, c, http.MethodGet, fmt.Sprintf("transactions/%d/", id), nil, nil)
}
