package videoapi

// Video is a video entry as stored by the remote API
type Video struct {
	ID          string `json:"id"`
	UserID      string `json:"user_id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	VideoURL    string `json:"video_url"`
	CreatedAt   string `json:"created_at,omitempty"`
	UpdatedAt   string `json:"updated_at,omitempty"`
}

// Comment is a comment on a video
type Comment struct {
	ID        string `json:"id"`
	VideoID   string `json:"video_id"`
	UserID    string `json:"user_id"`
	Content   string `json:"content"`
	CreatedAt string `json:"created_at"`
}

type CreateVideoRequest struct {
	UserID      string `json:"user_id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	VideoURL    string `json:"video_url"`
}

// EditVideoRequest updates the fields that are set; empty fields are left
// unchanged upstream.
type EditVideoRequest struct {
	VideoID     string `json:"video_id"`
	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`
	VideoURL    string `json:"video_url,omitempty"`
}

type CreateCommentRequest struct {
	VideoID string `json:"video_id"`
	UserID  string `json:"user_id"`
	Content string `json:"content"`
}

type listVideosResponse struct {
	Videos []Video `json:"videos"`
}

type listCommentsResponse struct {
	Comments []Comment `json:"comments"`
}
