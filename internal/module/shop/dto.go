package shop

// CreateBannerRequest is the banner creation payload (multipart form fields;
// the image file rides alongside).
type CreateBannerRequest struct {
	Name  string `form:"name" binding:"required,max=100"`
	Price int64  `form:"price" binding:"min=0"`
}
