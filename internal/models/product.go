package models

import "time"

type Product struct {
	ID          string           `json:"_id"`
	Owner       string           `json:"user"`
	Name        string           `json:"name"`
	SKU         string           `json:"sku"`
	Category    string           `json:"category"`
	Quantity    int              `json:"quantity"`
	Price       float64          `json:"price"`
	Description string           `json:"description"`
	Image       *ImageDescriptor `json:"image,omitempty"`
	CreatedAt   time.Time        `json:"createdAt"`
	UpdatedAt   time.Time        `json:"updatedAt"`
}

// ImageDescriptor describes a stored product image. ObjectKey identifies the
// remote object for deletion.
type ImageDescriptor struct {
	FileName  string `json:"fileName" bson:"fileName"`
	FilePath  string `json:"filePath" bson:"filePath"`
	FileType  string `json:"fileType" bson:"fileType"`
	FileSize  string `json:"fileSize" bson:"fileSize"`
	ObjectKey string `json:"objectKey" bson:"objectKey"`
}

// ProductInput is the body of create and update requests. Quantity and Price
// are pointers so that an explicit 0 is told apart from a missing field.
type ProductInput struct {
	Name        string   `form:"name" json:"name" validate:"required"`
	SKU         string   `form:"sku" json:"sku"`
	Category    string   `form:"category" json:"category" validate:"required"`
	Quantity    *int     `form:"quantity" json:"quantity" validate:"required,gte=0"`
	Price       *float64 `form:"price" json:"price" validate:"required,gte=0"`
	Description string   `form:"description" json:"description" validate:"required"`
}

// ProductUpdate is the set of fields an update replaces.
type ProductUpdate struct {
	Name        string
	Category    string
	Quantity    int
	Price       float64
	Description string
	Image       *ImageDescriptor
}

// UploadedFile is an accepted upload, held in memory until it reaches the media store.
type UploadedFile struct {
	FieldName    string
	OriginalName string
	StoredName   string
	ContentType  string
	Size         int64
	Content      []byte
}
