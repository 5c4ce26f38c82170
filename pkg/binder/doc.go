// Package binder fills request structs from HTTP requests.
//
// Each binder is a func(r *http.Request, v any) error and is passed to
// handler.Wrap. JSON decodes a strictly typed body; Path copies router
// parameters into fields tagged `path:"name"`.
//
//	type CreateBotRequest struct {
//		OwnerID int64  `path:"ownerID" json:"-"`
//		Token   string `json:"token"`
//	}
//
//	r.Post("/owners/{ownerID}/bots", handler.Wrap(create,
//		handler.WithBinders[handler.Context, CreateBotRequest](
//			binder.Path(binder.ChiParam),
//			binder.JSON(),
//		),
//	))
package binder
