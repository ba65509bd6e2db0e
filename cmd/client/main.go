// Package main implements the interactive cotizador client: a shell that
// drives the session store, the quotation list, the edit session, and the
// confirm-then-execute flows against the invoicing API.
package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/andeansoft/cotizador/internal/client/api"
	"github.com/andeansoft/cotizador/internal/client/confirm"
	"github.com/andeansoft/cotizador/internal/client/editor"
	"github.com/andeansoft/cotizador/internal/client/listview"
	"github.com/andeansoft/cotizador/internal/client/notify"
	"github.com/andeansoft/cotizador/internal/client/session"
	"github.com/andeansoft/cotizador/internal/config"
	"github.com/andeansoft/cotizador/internal/logger"
	"github.com/andeansoft/cotizador/internal/models"
)

var (
	version   string
	buildDate string
)

const helpText = `Available commands:
  login <email> <password>     sign in
  register <email> <password>  create an account
  logout                       sign out
  whoami                       show the resolved profile
  list                         show quotations
  filter <text>                narrow the cached list by client name or number
  refresh                      re-fetch the list
  show <id>                    print one quotation
  pdf <id>                     download a quotation PDF
  facturar <id>                issue the electronic receipt
  descargar <pdf|xml|cdr> <comprobante_id>
  edit <id>                    open a quotation for editing
  set <campo> <valor>          set a client field on the draft
  item <n> <campo> <valor>     set a line-item field
  additem / delitem <n>        add or remove a line item
  draft                        print the current draft
  submit / cancel              save or discard the draft
  delete <id>                  delete a quotation (asks for confirmation)
  users / user <id>            admin: list accounts / show one
  deactivate <id> / activate <id> / userdel <id>
  confirm [motivo] / no        resolve the pending confirmation
  theme <light|dark>           persist the UI theme preference
  exit`

// app bundles the client core the shell commands operate on.
type app struct {
	client  *api.Client
	sess    *session.Store
	creds   *session.BoltCredentials
	toasts  *notify.Channel
	cots    *listview.Controller[models.Cotizacion]
	edit    *editor.Session
	pending *confirm.Action
	dlDir   string
}

func (a *app) ctx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 15*time.Second)
}

func (a *app) printCotizacion(c models.Cotizacion) {
	fmt.Printf("N° %s  %-30s %s %.2f  (%s)\n",
		c.NumeroCotizacion, c.NombreCliente, c.Moneda, c.MontoTotal,
		c.FechaCreacion.Format("2006-01-02"))
	for _, p := range c.Productos {
		fmt.Printf("    %-30s %4d x %8.2f = %8.2f\n",
			p.Descripcion, p.Unidades, p.PrecioUnitario, p.Total)
	}
	if c.Comprobante != nil {
		fmt.Printf("    comprobante: %s-%s (id %d)\n",
			c.Comprobante.Serie, c.Comprobante.Correlativo, c.Comprobante.ID)
	}
}

func (a *app) printDraft() {
	if a.edit.State() != editor.StateEditing {
		fmt.Println("estado del borrador:", a.edit.State())
		return
	}
	d := a.edit.Draft()
	fmt.Printf("Cotización %d — %s (%s %s), %s, %s\n",
		a.edit.EntityID(), d.NombreCliente, d.TipoDocumento, d.NroDocumento,
		d.DireccionCliente, d.Moneda)
	var total float64
	for i, it := range d.Items {
		fmt.Printf("  [%d] %-30s %4d x %8.2f = %8.2f\n",
			i, it.Descripcion, it.Unidades, it.PrecioUnitario, it.Total)
		total += it.Total
	}
	fmt.Printf("  monto total: %.2f\n", total)
}

// report surfaces a failed API call. A 401 on an authenticated endpoint
// means the token is no longer valid, so the session is cleared as well.
func (a *app) report(err error) {
	a.toasts.Notify(err.Error(), notify.KindError)
	var apiErr *api.Error
	if errors.As(err, &apiErr) && apiErr.Unauthorized() {
		a.sess.Logout()
		fmt.Println("Tu sesión ha expirado. Inicia sesión nuevamente.")
	}
}

// stage installs a pending confirmation and tells the user how to resolve it.
func (a *app) stage(action *confirm.Action, t confirm.Target, prompt string) {
	action.Stage(t)
	a.pending = action
	fmt.Println(prompt)
	if t.RequiresReason {
		fmt.Println("Escribe: confirm <motivo>   (o 'no' para cancelar)")
	} else {
		fmt.Println("Escribe: confirm   (o 'no' para cancelar)")
	}
}

func (a *app) run(line string) bool {
	args := strings.Fields(line)
	if len(args) == 0 {
		return true
	}

	switch args[0] {
	case "help":
		fmt.Println(helpText)

	case "login":
		if len(args) < 3 {
			fmt.Println("Usage: login <email> <password>")
			return true
		}
		ctx, cancel := a.ctx()
		defer cancel()
		token, err := a.client.Login(ctx, args[1], args[2])
		if err != nil {
			a.toasts.Notify(err.Error(), notify.KindError)
			return true
		}
		a.sess.Login(token)
		fmt.Println("Sesión iniciada.")

	case "register":
		if len(args) < 3 {
			fmt.Println("Usage: register <email> <password>")
			return true
		}
		ctx, cancel := a.ctx()
		defer cancel()
		p, err := a.client.Register(ctx, args[1], args[2])
		if err != nil {
			a.toasts.Notify(err.Error(), notify.KindError)
			return true
		}
		a.toasts.Notify("Cuenta creada para "+p.Email+". Ya puedes iniciar sesión.", notify.KindSuccess)

	case "logout":
		a.sess.Logout()
		fmt.Println("Sesión cerrada.")

	case "whoami":
		if a.sess.IsResolving() {
			fmt.Println("validando sesión...")
			return true
		}
		u := a.sess.User()
		if u == nil {
			fmt.Println("No has iniciado sesión.")
			return true
		}
		fmt.Printf("%s (id %d, admin=%v)\n", u.Email, u.ID, u.IsAdmin)
		if u.BusinessName != "" {
			fmt.Printf("negocio: %s RUC %s\n", u.BusinessName, u.BusinessRUC)
		}

	case "list":
		if a.cots.IsLoading() {
			fmt.Println("cargando...")
		}
		if msg := a.cots.ErrorMessage(); msg != "" {
			fmt.Println("error:", msg)
		}
		for _, c := range a.cots.Items() {
			a.printCotizacion(c)
		}

	case "filter":
		if len(args) < 2 {
			fmt.Println("Usage: filter <text>")
			return true
		}
		q := strings.ToLower(strings.Join(args[1:], " "))
		for _, c := range a.cots.Filter(func(c models.Cotizacion) bool {
			return strings.Contains(strings.ToLower(c.NombreCliente), q) ||
				strings.Contains(strings.ToLower(c.NumeroCotizacion), q)
		}) {
			a.printCotizacion(c)
		}

	case "refresh":
		a.cots.RequestRefresh()
		fmt.Println("Actualizando lista...")

	case "show":
		id, ok := intArg(args, 1, "show <id>")
		if !ok {
			return true
		}
		ctx, cancel := a.ctx()
		defer cancel()
		c, err := a.client.GetCotizacion(ctx, id)
		if err != nil {
			a.report(err)
			return true
		}
		a.printCotizacion(*c)

	case "pdf":
		id, ok := intArg(args, 1, "pdf <id>")
		if !ok {
			return true
		}
		ctx, cancel := a.ctx()
		defer cancel()
		data, filename, err := a.client.CotizacionPDF(ctx, id)
		if err != nil {
			a.report(err)
			return true
		}
		if filename == "" {
			filename = fmt.Sprintf("Cotizacion_%d.pdf", id)
		}
		path, err := api.SaveDownload(a.dlDir, filename, data)
		if err != nil {
			a.report(err)
			return true
		}
		a.toasts.Notify("Descargado "+path, notify.KindSuccess)

	case "facturar":
		id, ok := intArg(args, 1, "facturar <id>")
		if !ok {
			return true
		}
		ctx, cancel := a.ctx()
		defer cancel()
		c, err := a.client.Facturar(ctx, id)
		if err != nil {
			a.report(err)
			return true
		}
		a.toasts.Notify(fmt.Sprintf("Comprobante %s-%s emitido.",
			c.Comprobante.Serie, c.Comprobante.Correlativo), notify.KindSuccess)
		a.cots.RequestRefresh()

	case "descargar":
		if len(args) < 3 {
			fmt.Println("Usage: descargar <pdf|xml|cdr> <comprobante_id>")
			return true
		}
		id, err := strconv.Atoi(args[2])
		if err != nil {
			fmt.Println("Usage: descargar <pdf|xml|cdr> <comprobante_id>")
			return true
		}
		ctx, cancel := a.ctx()
		defer cancel()
		data, filename, err := a.client.DownloadComprobante(ctx, args[1], id)
		if err != nil {
			a.report(err)
			return true
		}
		if filename == "" {
			filename = fmt.Sprintf("Comprobante_%d.%s", id, args[1])
		}
		path, err := api.SaveDownload(a.dlDir, filename, data)
		if err != nil {
			a.report(err)
			return true
		}
		a.toasts.Notify("Descargado "+path, notify.KindSuccess)

	case "edit":
		id, ok := intArg(args, 1, "edit <id>")
		if !ok {
			return true
		}
		a.edit.Open(id)
		fmt.Println("Cargando cotización", id, "... usa 'draft' para ver el borrador.")

	case "set":
		if len(args) < 3 {
			fmt.Println("Usage: set <campo> <valor>")
			return true
		}
		if err := a.edit.SetField(args[1], strings.Join(args[2:], " ")); err != nil {
			fmt.Println(err)
		}

	case "item":
		if len(args) < 4 {
			fmt.Println("Usage: item <n> <campo> <valor>")
			return true
		}
		idx, err := strconv.Atoi(args[1])
		if err != nil {
			fmt.Println("Usage: item <n> <campo> <valor>")
			return true
		}
		if err := a.edit.SetItemField(idx, args[2], strings.Join(args[3:], " ")); err != nil {
			fmt.Println(err)
		}

	case "additem":
		if err := a.edit.AddLineItem(); err != nil {
			fmt.Println(err)
		}

	case "delitem":
		idx, ok := intArg(args, 1, "delitem <n>")
		if !ok {
			return true
		}
		if err := a.edit.RemoveLineItem(idx); err != nil {
			fmt.Println(err)
		}

	case "draft":
		a.printDraft()

	case "submit":
		if err := a.edit.Submit(); err != nil {
			fmt.Println(err)
		}

	case "cancel":
		a.edit.Close()
		fmt.Println("Borrador descartado.")

	case "delete":
		id, ok := intArg(args, 1, "delete <id>")
		if !ok {
			return true
		}
		action := confirm.New(
			func(ctx context.Context, targetID int, _ string) error {
				return a.client.DeleteCotizacion(ctx, targetID)
			},
			a.toasts, "Cotización eliminada.", a.cots.RequestRefresh)
		a.stage(action, confirm.Target{ID: id, Label: fmt.Sprintf("cotización %d", id)},
			fmt.Sprintf("¿Eliminar la cotización %d? Esta acción es irreversible.", id))

	case "users":
		ctx, cancel := a.ctx()
		defer cancel()
		users, err := a.client.AdminListUsers(ctx)
		if err != nil {
			a.report(err)
			return true
		}
		for _, u := range users {
			state := "activo"
			if !u.IsActive {
				state = "inactivo (" + u.DeactivationReason + ")"
			}
			fmt.Printf("%3d  %-30s admin=%-5v %s\n", u.ID, u.Email, u.IsAdmin, state)
		}

	case "user":
		id, ok := intArg(args, 1, "user <id>")
		if !ok {
			return true
		}
		ctx, cancel := a.ctx()
		defer cancel()
		p, err := a.client.AdminGetUser(ctx, id)
		if err != nil {
			a.report(err)
			return true
		}
		fmt.Printf("%s (id %d, activo=%v)\n", p.Email, p.ID, p.IsActive)
		cots, err := a.client.AdminUserCotizaciones(ctx, id)
		if err != nil {
			a.report(err)
			return true
		}
		for _, c := range cots {
			a.printCotizacion(c)
		}

	case "deactivate":
		id, ok := intArg(args, 1, "deactivate <id>")
		if !ok {
			return true
		}
		action := confirm.New(
			func(ctx context.Context, targetID int, reason string) error {
				_, err := a.client.AdminUpdateUserStatus(ctx, targetID,
					models.UserStatusUpdate{IsActive: false, DeactivationReason: reason})
				return err
			},
			a.toasts, "Usuario desactivado.", nil)
		a.stage(action, confirm.Target{ID: id, RequiresReason: true},
			fmt.Sprintf("Vas a desactivar al usuario %d. Se requiere un motivo.", id))

	case "activate":
		id, ok := intArg(args, 1, "activate <id>")
		if !ok {
			return true
		}
		action := confirm.New(
			func(ctx context.Context, targetID int, _ string) error {
				_, err := a.client.AdminUpdateUserStatus(ctx, targetID,
					models.UserStatusUpdate{IsActive: true})
				return err
			},
			a.toasts, "Usuario reactivado.", nil)
		a.stage(action, confirm.Target{ID: id},
			fmt.Sprintf("¿Reactivar al usuario %d?", id))

	case "userdel":
		id, ok := intArg(args, 1, "userdel <id>")
		if !ok {
			return true
		}
		action := confirm.New(
			func(ctx context.Context, targetID int, _ string) error {
				return a.client.AdminDeleteUser(ctx, targetID)
			},
			a.toasts, "Usuario eliminado.", nil)
		a.stage(action, confirm.Target{ID: id},
			fmt.Sprintf("¿Eliminar definitivamente al usuario %d?", id))

	case "confirm":
		if a.pending == nil {
			fmt.Println("No hay ninguna acción pendiente.")
			return true
		}
		reason := strings.Join(args[1:], " ")
		if err := a.pending.Confirm(reason); err == confirm.ErrReasonRequired {
			fmt.Println("Se requiere un motivo: confirm <motivo>")
			return true
		}
		a.pending = nil

	case "no":
		if a.pending != nil {
			a.pending.Cancel()
			a.pending = nil
			fmt.Println("Acción cancelada.")
		}

	case "theme":
		if len(args) < 2 || (args[1] != "light" && args[1] != "dark") {
			fmt.Println("Usage: theme <light|dark>")
			return true
		}
		if err := a.creds.SaveTheme(args[1]); err != nil {
			fmt.Println("no se pudo guardar la preferencia:", err)
		}

	case "exit":
		fmt.Println("Hasta luego.")
		return false

	default:
		fmt.Println("Unknown command. Type 'help' for a list of commands.")
	}
	return true
}

// intArg parses args[pos] as an integer, printing usage on failure.
func intArg(args []string, pos int, usage string) (int, bool) {
	if len(args) <= pos {
		fmt.Println("Usage:", usage)
		return 0, false
	}
	n, err := strconv.Atoi(args[pos])
	if err != nil {
		fmt.Println("Usage:", usage)
		return 0, false
	}
	return n, true
}

func main() {
	for _, arg := range os.Args[1:] {
		if arg == "-version" || arg == "--version" {
			fmt.Printf("Cotizador Client\nVersion: %s\nBuild Date: %s\n", version, buildDate)
			return
		}
	}

	options := config.Parse()

	log := logger.New()
	if err := log.Init("warn"); err != nil {
		panic(err)
	}
	defer func() { _ = log.Log.Sync() }()

	creds, err := session.OpenBolt(options.StatePath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer func() { _ = creds.Close() }()

	toasts := notify.New()
	toasts.Subscribe(func(n notify.Notification) {
		fmt.Printf("[%s] %s\n", n.Kind, n.Message)
	})

	sess := session.New(creds, log.Log)
	client := api.New(options.APIBaseURL, nil, sess, log.Log)
	sess.Start(client)

	cots := listview.New(sess, client.ListCotizaciones, log.Log)
	edit := editor.New(client, toasts, cots.RequestRefresh, log.Log)

	a := &app{
		client: client,
		sess:   sess,
		creds:  creds,
		toasts: toasts,
		cots:   cots,
		edit:   edit,
		dlDir:  options.DownloadDir,
	}

	if theme, err := creds.Theme(); err == nil && theme != "" {
		fmt.Println("tema:", theme)
	}
	fmt.Println("Cotizador — escribe 'help' para ver los comandos.")

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("cotizador> ")
		if !scanner.Scan() {
			break
		}
		if !a.run(strings.TrimSpace(scanner.Text())) {
			break
		}
	}
}
