// Package catalog は旅行パッケージの参照機能を提供します。
//
// パッケージはこのサービスからは読み取り専用で、登録は jobs パッケージの
// インポートジョブ経由でのみ行われます。
package catalog

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Flight はパッケージに含まれる航空便情報です。
type Flight struct {
	Details       string     `bson:"details,omitempty" json:"details,omitempty"`
	FlightNumber  string     `bson:"flightNumber,omitempty" json:"flightNumber,omitempty"`
	DepartureDate *time.Time `bson:"departureDate,omitempty" json:"departureDate,omitempty"`
	ReturnDate    *time.Time `bson:"returnDate,omitempty" json:"returnDate,omitempty"`
}

// Hotel はパッケージに含まれる宿泊情報です。
type Hotel struct {
	Details        string     `bson:"details,omitempty" json:"details,omitempty"`
	Name           string     `bson:"name,omitempty" json:"name,omitempty"`
	Address        string     `bson:"address,omitempty" json:"address,omitempty"`
	CheckIn        *time.Time `bson:"checkIn,omitempty" json:"checkIn,omitempty"`
	CheckOut       *time.Time `bson:"checkOut,omitempty" json:"checkOut,omitempty"`
	BookingDetails string     `bson:"bookingDetails,omitempty" json:"bookingDetails,omitempty"`
}

// Policy はキャンセル規定などの注意事項です。
type Policy struct {
	Title       string `bson:"title" json:"title"`
	Description string `bson:"description" json:"description"`
}

// ItineraryDay は旅程の 1 日分です。
type ItineraryDay struct {
	Day         int        `bson:"day" json:"day"`
	Date        *time.Time `bson:"date,omitempty" json:"date,omitempty"`
	Hotel       string     `bson:"hotel" json:"hotel"`
	HotelStars  string     `bson:"hotelStars" json:"hotelStars"`
	Car         string     `bson:"car" json:"car"`
	Sightseeing string     `bson:"sightseeing" json:"sightseeing"`
}

// Activity は現地アクティビティです。
type Activity struct {
	Name        string `bson:"name" json:"name"`
	Img         string `bson:"img" json:"img"`
	Description string `bson:"description" json:"description"`
}

// Package は旅行パッケージです。Flights と Hotels は配列ではなく 1 件の埋め込みドキュメントです。
type Package struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	Destination string             `bson:"destination" json:"destination"`
	Name        string             `bson:"name" json:"name"`
	Duration    string             `bson:"duration" json:"duration"`
	Flights     Flight             `bson:"flights" json:"flights"`
	Hotels      Hotel              `bson:"hotels" json:"hotels"`
	Transfers   string             `bson:"transfers" json:"transfers"`
	Activities  []Activity         `bson:"activities" json:"activities"`
	Meals       string             `bson:"meals" json:"meals"`
	Price       string             `bson:"price" json:"price"`
	Img         string             `bson:"img" json:"img"`
	ImgURLs     []string           `bson:"imgUrls" json:"imgUrls"`
	Policies    []Policy           `bson:"policies" json:"policies"`
	Itinerary   []ItineraryDay     `bson:"itinerary" json:"itinerary"`
}

// ParseID は 16 進文字列の ObjectID を解釈します。
// 形式が不正な場合は ErrInvalidID を返します。
func ParseID(raw string) (primitive.ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(raw)
	if err != nil {
		return primitive.NilObjectID, ErrInvalidID
	}
	return id, nil
}

// AssignIDs は ID 未設定のパッケージに新しい ObjectID を割り当てます。
// インポートを再実行しても同じドキュメントに書き込まれるよう、投入前に確定させます。
func AssignIDs(pkgs []Package) {
	for i := range pkgs {
		if pkgs[i].ID.IsZero() {
			pkgs[i].ID = primitive.NewObjectID()
		}
	}
}

func clonePackage(p Package) Package {
	out := p
	out.Activities = cloneSlice(p.Activities)
	out.ImgURLs = cloneSlice(p.ImgURLs)
	out.Policies = cloneSlice(p.Policies)
	out.Itinerary = cloneSlice(p.Itinerary)
	return out
}

// withEmptySlices は nil のスライスを空スライスに置き換えます（JSON で null ではなく [] を返すため）。
func withEmptySlices(p Package) Package {
	if p.Activities == nil {
		p.Activities = []Activity{}
	}
	if p.ImgURLs == nil {
		p.ImgURLs = []string{}
	}
	if p.Policies == nil {
		p.Policies = []Policy{}
	}
	if p.Itinerary == nil {
		p.Itinerary = []ItineraryDay{}
	}
	return p
}

func cloneSlice[T any](s []T) []T {
	if s == nil {
		return nil
	}
	return append(make([]T, 0, len(s)), s...)
}
