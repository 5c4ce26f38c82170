// Package handler adapts typed request handlers to net/http.
//
// A HandlerFunc receives a Context and a request struct filled by binders and
// returns a Response:
//
//	type CreateBotRequest struct {
//		OwnerID int64  `path:"ownerID" json:"-"`
//		Token   string `json:"token"`
//	}
//
//	func create(ctx handler.Context, req CreateBotRequest) handler.Response {
//		bot, err := svc.Onboard(ctx, req.OwnerID, req.Token)
//		if err != nil {
//			return handler.JSONError(err)
//		}
//		return handler.JSON(bot, handler.WithJSONStatus(http.StatusCreated))
//	}
//
//	r.Post("/owners/{ownerID}/bots", handler.Wrap(create,
//		handler.WithBinders[handler.Context, CreateBotRequest](binder.Path(binder.ChiParam), binder.JSON()),
//		handler.WithErrorHandler[handler.Context, CreateBotRequest](handler.NewErrorHandler(log)),
//	))
//
// Binding and rendering failures go to the ErrorHandler. HTTPError values
// carry their status code; every other error becomes 500.
package handler
