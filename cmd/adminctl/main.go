// adminctl pilote l'API admin depuis un terminal : création ou édition d'un
// produit avec ses images, consultation des variantes, allocation de stock.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"time"

	"cedra_admin/internal/apiclient"
	"cedra_admin/internal/config"
	"cedra_admin/internal/controller"
	"cedra_admin/internal/forms"
	"cedra_admin/internal/images"
)

const usage = `usage: adminctl <commande> [options]

commandes :
  product   crée ou modifie un produit (-manifest, -image, -order, -edit)
  variants  liste les variantes d'un produit (-product)
  allocate  alloue du stock à un revendeur (-dealer, -product, -variant, -qty)
  search    recherche des produits (-q)`

func main() {
	config.Load()
	settings := config.FromEnv()

	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, usage)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	client := apiclient.New(settings.AdminAPIBase, apiclient.WithTimeout(2*time.Minute))

	var err error
	switch cmd, args := os.Args[1], os.Args[2:]; cmd {
	case "product":
		err = runProduct(ctx, client, args)
	case "variants":
		err = runVariants(ctx, client, args)
	case "allocate":
		err = runAllocate(ctx, client, args)
	case "search":
		err = runSearch(ctx, client, args)
	default:
		fmt.Fprintln(os.Stderr, usage)
		os.Exit(2)
	}
	if err != nil {
		log.Fatalf("❌ %v", err)
	}
}

// listFlag accumule les -image répétés.
type listFlag []string

func (l *listFlag) String() string     { return strings.Join(*l, ",") }
func (l *listFlag) Set(v string) error { *l = append(*l, v); return nil }

func runProduct(ctx context.Context, client *apiclient.Client, args []string) error {
	fs := flag.NewFlagSet("product", flag.ExitOnError)
	manifestPath := fs.String("manifest", "", "fichier JSON du produit")
	editID := fs.String("edit", "", "identifiant du produit à modifier")
	order := fs.String("order", "", "ordre final de la galerie, ex: 2,0,1")
	var files listFlag
	fs.Var(&files, "image", "image à ajouter (répétable)")
	_ = fs.Parse(args)

	if *manifestPath == "" {
		return errors.New("-manifest est obligatoire")
	}
	m, err := readManifest(*manifestPath)
	if err != nil {
		return err
	}

	var form *controller.ProductForm
	if *editID != "" {
		existing, err := client.Product(ctx, *editID)
		if err != nil {
			return fmt.Errorf("chargement du produit %s: %w", *editID, err)
		}
		form = controller.NewProductForm(client, controller.LogNotifier{}, existing)
	} else {
		form = controller.NewProductForm(client, controller.LogNotifier{}, nil)
	}
	defer form.Close()

	if err := m.apply(ctx, client, form); err != nil {
		return err
	}
	if err := addImages(form, files, *order); err != nil {
		return err
	}

	id, err := form.Submit(ctx)
	if err != nil {
		return err
	}
	fmt.Println(id)
	return nil
}

func addImages(form *controller.ProductForm, paths []string, order string) error {
	var files []*images.File
	for _, p := range paths {
		f, err := images.FileFromPath(p)
		if err != nil {
			return err
		}
		files = append(files, f)
	}

	gallery := form.Images()
	rejected, err := gallery.AddFiles(files...)
	if err != nil {
		return err
	}
	for _, r := range rejected {
		log.Printf("⚠️ %s ignoré : %s", r.File.Name, r.Reason)
	}

	if order == "" {
		return nil
	}
	perm, err := parseOrder(order)
	if err != nil {
		return err
	}
	return gallery.Reorder(perm)
}

func parseOrder(raw string) ([]int, error) {
	parts := strings.Split(raw, ",")
	perm := make([]int, 0, len(parts))
	for _, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return nil, fmt.Errorf("-order invalide %q: %w", raw, err)
		}
		perm = append(perm, n)
	}
	return perm, nil
}

func runVariants(ctx context.Context, client *apiclient.Client, args []string) error {
	fs := flag.NewFlagSet("variants", flag.ExitOnError)
	productID := fs.String("product", "", "identifiant du produit")
	_ = fs.Parse(args)

	form := controller.NewAllocationForm(client, controller.LogNotifier{})
	choices, err := form.LoadVariants(ctx, *productID)
	if err != nil {
		return err
	}
	for _, c := range choices {
		state := "active"
		if !c.Enabled {
			state = "désactivée"
		}
		fmt.Printf("%3d  %-40s stock %-6d %s\n", c.Index, c.Label, c.Stock, state)
	}
	return nil
}

func runAllocate(ctx context.Context, client *apiclient.Client, args []string) error {
	fs := flag.NewFlagSet("allocate", flag.ExitOnError)
	var p forms.AllocationPayload
	fs.StringVar(&p.DealerID, "dealer", "", "identifiant du revendeur")
	fs.StringVar(&p.ProductID, "product", "", "identifiant du produit")
	fs.IntVar(&p.VariantIndex, "variant", 0, "index de la variante")
	fs.IntVar(&p.Quantity, "qty", 0, "quantité")
	_ = fs.Parse(args)

	form := controller.NewAllocationForm(client, controller.LogNotifier{})
	if _, err := form.LoadVariants(ctx, p.ProductID); err != nil {
		return err
	}
	id, err := form.Submit(ctx, p)
	if err != nil {
		return err
	}
	fmt.Println(id)
	return nil
}

func runSearch(ctx context.Context, client *apiclient.Client, args []string) error {
	fs := flag.NewFlagSet("search", flag.ExitOnError)
	q := fs.String("q", "", "texte recherché")
	_ = fs.Parse(args)

	hits, err := client.SearchProducts(ctx, *q)
	if err != nil {
		return err
	}
	for _, h := range hits {
		fmt.Printf("%s  %-30s %s\n", h.ID, h.Slug, h.Name)
	}
	return nil
}

func readManifest(path string) (*manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("lecture du manifeste: %w", err)
	}
	var m manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("manifeste %s: %w", path, err)
	}
	return &m, nil
}
