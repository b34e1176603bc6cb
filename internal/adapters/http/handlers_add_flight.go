package web

import (
	"net/http"
	"net/url"

	"flightlog/internal/adapters/http/middleware"
	"flightlog/internal/application/orchestrators"
	"flightlog/internal/domain/flight"
)

// classOption is one cabin class radio on the add-flight form.
type classOption struct {
	Value   string
	Label   string
	Checked bool
}

// addFlightView is the add-flight form view model.
type addFlightView struct {
	Values  url.Values // what the user typed, echoed back after a failure
	Classes []classOption
}

func (a *app) addFlightView(values url.Values) addFlightView {
	selected := values.Get(flight.FieldClassChoice)
	classes := flight.SelectableClasses(a.ui.AllowFirstClass)
	if selected == "" && len(classes) > 0 {
		selected = classes[0].Attrs().FormValue
	}
	opts := make([]classOption, 0, len(classes))
	for _, c := range classes {
		attrs := c.Attrs()
		opts = append(opts, classOption{Value: attrs.FormValue, Label: attrs.Label, Checked: attrs.FormValue == selected})
	}
	return addFlightView{Values: values, Classes: opts}
}

// handleAddFlightPage renders the empty form.
func (a *app) handleAddFlightPage(w http.ResponseWriter, r *http.Request) {
	a.render(w, r, http.StatusOK, "add_flight.html",
		a.newPage(r, "Add Flight", "add-flight", "/add-flight", a.addFlightView(nil)))
}

// handleAddFlight validates and submits the form.
// Success schedules a refresh to the list; any failure re-renders the form
// with the entered values and an error notification.
func (a *app) handleAddFlight(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	visitor := middleware.VisitorID(ctx)

	if err := r.ParseForm(); err != nil {
		a.queue.Error(ctx, visitor, orchestrators.MsgAddFlightFailed)
		a.render(w, r, http.StatusBadRequest, "add_flight.html",
			a.newPage(r, "Add Flight", "add-flight", "/add-flight", a.addFlightView(nil)))
		return
	}

	_, err := orchestrators.ExecuteAddFlight(ctx,
		orchestrators.AddFlightInput{Form: r.PostForm, AllowFirstClass: a.ui.AllowFirstClass},
		orchestrators.AddFlightDeps{API: a.api})
	if err != nil {
		a.queue.Error(ctx, visitor, orchestrators.UserMessage(err, orchestrators.MsgAddFlightFailed))
		a.render(w, r, http.StatusOK, "add_flight.html",
			a.newPage(r, "Add Flight", "add-flight", "/add-flight", a.addFlightView(r.PostForm)))
		return
	}

	a.queue.Success(ctx, visitor, orchestrators.MsgFlightAdded)
	page := a.newPage(r, "Add Flight", "add-flight", "/", a.addFlightView(nil))
	page.Refresh = &refresh{URL: "/", Delay: a.ui.RedirectDelay}
	a.render(w, r, http.StatusOK, "add_flight.html", page)
}
