// Package thesis holds the fixed content of the undergraduate thesis and the
// order in which it is inserted into a document.
package thesis

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"thesisgen/internal/config"
	"thesisgen/internal/document"
	"thesisgen/internal/domain"
	"thesisgen/internal/placeholder"
)

// Title is stored as document metadata.
const Title = "Analisis Perbandingan PID Controller dan Fuzzy Logic pada Monitoring Kualitas Air Akuarium Berbasis Internet of Things"

// Figure is a figure file referenced by the thesis and its caption.
type Figure struct {
	Name    string
	Caption string
}

// Figures lists every referenced figure in the order it appears.
var Figures = []Figure{
	{Name: "gambar1_iot.png", Caption: "Gambar 1. Arsitektur Sistem IoT pada Monitoring Kualitas Air Akuarium"},
	{Name: "gambar2_pid.png", Caption: "Gambar 2. Kurva Respons PID Controller terhadap Gangguan Suhu"},
	{Name: "gambar3_fuzzy.png", Caption: "Gambar 3. Blok Diagram Fuzzy Logic Controller"},
	{Name: "gambar4_eval.png", Caption: "Gambar 4. Parameter Evaluasi Sistem Kendali"},
}

// PlaceholderRequests maps Figures to placeholder requests under dir.
func PlaceholderRequests(dir string) []placeholder.Request {
	reqs := make([]placeholder.Request, 0, len(Figures))
	for _, f := range Figures {
		reqs = append(reqs, placeholder.Request{Path: filepath.Join(dir, f.Name), Text: f.Caption})
	}
	return reqs
}

// Options controls how figures are inserted.
type Options struct {
	FiguresDir     string
	PictureWidthIn float64
}

// writer keeps the first error so the content below reads as a flat sequence.
type writer struct {
	b    *document.Builder
	opts Options
	err  error
}

func (w *writer) h1(text string) { w.heading(text, 1) }
func (w *writer) h2(text string) { w.heading(text, 2) }

func (w *writer) heading(text string, level int) {
	if w.err != nil {
		return
	}
	w.err = w.b.AddHeading(text, level)
}

func (w *writer) p(text string) {
	if w.err != nil {
		return
	}
	w.b.AddParagraph(text)
}

// figure inserts the named figure if its file exists and skips it otherwise.
func (w *writer) figure(name string) {
	if w.err != nil {
		return
	}
	path := filepath.Join(w.opts.FiguresDir, name)
	if _, err := os.Stat(path); err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			w.err = fmt.Errorf("figure %s: %w", path, err)
		}
		return
	}
	w.err = w.b.AddPicture(path, w.opts.PictureWidthIn)
}

func (w *writer) caption(text string) {
	if w.err != nil {
		return
	}
	w.b.AddParagraph("").
		AddRun(domain.Run{Text: text, Italic: true}).
		SetAlignment(domain.AlignCenter)
}

func (w *writer) pageBreak() {
	if w.err != nil {
		return
	}
	w.b.AddPageBreak()
}

// Assemble appends the whole thesis to b. Figures missing from
// opts.FiguresDir are left out; their captions are kept.
func Assemble(b *document.Builder, opts Options) error {
	if opts.FiguresDir == "" {
		opts.FiguresDir = "."
	}
	if opts.PictureWidthIn <= 0 {
		opts.PictureWidthIn = 5.0
	}
	b.SetTitle(Title)

	w := &writer{b: b, opts: opts}
	// title page
	w.p("ANALISIS PERBANDINGAN PID CONTROLLER DAN FUZZY LOGIC PADA MONITORING KUALITAS AIR AKUARIUM BERBASIS")
	w.p("INTERNET OF THINGS")
	w.p("")
	w.p("HAFIZ MOHAMMAD ISKANDAR")
	w.p("D121 19 10 12")
	w.p("")
	w.p("PROGRAM STUDI SARJANA TEKNIK INFORMATIKA")
	w.p("FAKULTAS TEKNIK")
	w.p("UNIVERSITAS HASANUDDIN")
	w.p("GOWA")
	w.p("2025")
	w.pageBreak()

	w.h1("ABSTRAK")
	w.p("Hafiz Mohammad Iskandar. Analisis Perbandingan PID Controller dan Fuzzy Logic pada Monitoring Kualitas Air Akuarium Berbasis Internet of Things. (Dibimbing oleh Muhammad Alief Fahdal Imran Oemar)")
	w.p("")
	w.p("Pemeliharaan akuarium membutuhkan stabilitas parameter kualitas air seperti suhu dan kekeruhan (turbidity) agar ikan tetap sehat. Metode manual yang umum digunakan seringkali tidak akurat dan rentan terhadap kesalahan manusia. Penelitian ini bertujuan untuk merancang sistem monitoring kualitas air akuarium berbasis Internet of Things (IoT) yang menerapkan dua metode kendali: PID Controller dan Fuzzy Logic, serta membandingkan performa keduanya berdasarkan parameter overshoot, steady-state error, dan settling time.")
	w.p("")
	w.p("Sistem dirancang menggunakan sensor DS18B20 untuk suhu dan sensor turbidity AB147 untuk mengukur kekeruhan air, mikrokontroler ESP32, aktuator berupa heater dan water pump, serta antarmuka web untuk visualisasi real-time. Data dikirim dari node sensor ke server melalui protokol MQTT, lalu ditampilkan ke pengguna melalui website berbasis HTTP. Pengujian dilakukan dalam kondisi simulasi dan real-time untuk membandingkan respons kedua metode terhadap perubahan suhu dan turbidity.")
	w.p("")
	w.p("Hasil pengujian menunjukkan bahwa Fuzzy Logic memberikan respons yang lebih stabil dengan overshoot lebih rendah dan steady-state error yang lebih kecil, meskipun memiliki settling time sedikit lebih lama dibanding PID Controller. Sebaliknya, PID Controller memberikan respon lebih cepat namun cenderung mengalami osilasi di sekitar setpoint. Sistem yang dibangun berhasil memantau dan mengontrol kualitas air secara otomatis dan real-time, serta memberikan rekomendasi metode kontrol yang optimal berdasarkan kebutuhan pengguna.")
	w.p("")
	w.p("Kata Kunci: PID Controller, Fuzzy Logic, IoT, monitoring kualitas air, akuarium, ESP32, sensor turbidity AB147")
	w.pageBreak()

	w.h1("BAB I – PENDAHULUAN")

	w.h2("1.1 Latar Belakang")
	w.p("Indonesia, sebagai negara kepulauan terbesar di dunia, memiliki kekayaan biodiversitas laut yang sangat tinggi. Keindahan terumbu karang, ikan hias, dan biota laut lainnya telah menjadikan akuarium sebagai salah satu sarana untuk memperkenalkan dan melestarikan keanekaragaman hayati laut kepada masyarakat...")
	w.p("Akuarium ikan hias membutuhkan perhatian khusus dalam menjaga kualitas air agar sesuai dengan kebutuhan spesifik berbagai spesies ikan dan tanaman akuatik. Kualitas air yang buruk dapat menyebabkan stres, penyakit, dan bahkan kematian pada ikan, yang sering kali disebabkan oleh fluktuasi suhu, kekeruhan (turbidity), tingkat oksigen terlarut, dan parameter kimia lainnya (Gawad & Hammad, 2021).")
	w.p("Dalam sistem kendali otomatis, PID Controller merupakan salah satu teknik pengendalian yang paling sering digunakan... Di sisi lain, Fuzzy Logic dianggap mampu memetakan input ke output tanpa mengabaikan ketidakpastian dalam data...")

	w.h2("1.2 Teori")

	w.h2("Internet of Things (IoT)")
	w.p("Internet of Things (IoT) adalah paradigma komputasi modern yang menghubungkan objek fisik—seperti sensor, aktuator, dan perangkat elektronik—ke internet untuk memungkinkan pengumpulan, pertukaran, dan analisis data secara otomatis...")
	w.figure(Figures[0].Name)
	w.caption(Figures[0].Caption)
	w.p("")

	w.h2("Sensor Suhu DS18B20")
	w.p("Sensor DS18B20 adalah sensor suhu digital berbasis protokol 1-Wire yang mampu mengukur suhu dalam rentang –55°C hingga +125°C dengan akurasi ±0.5°C...")

	w.h2("Sensor Turbidity AB147")
	w.p("Sensor turbidity AB147 (Gravity: Analog Turbidity Sensor) adalah modul sensor analog yang dirancang untuk mengukur tingkat kekeruhan (turbidity) dalam air berdasarkan prinsip nephelometric light scattering. Sensor ini bekerja dengan memancarkan cahaya inframerah melalui sampel air dan mengukur intensitas cahaya yang dipantulkan oleh partikel tersuspensi (seperti sisa pakan, kotoran ikan, atau mikroorganisme).")
	w.p("Sensor ini menghasilkan output tegangan analog 0–5 V, di mana tegangan rendah menunjukkan air jernih (turbidity rendah) dan tegangan tinggi menunjukkan air keruh (turbidity tinggi). Rentang pengukuran sensor AB147 adalah 0–1000 NTU dengan akurasi ±5%.")
	w.p("Dalam konteks akuarium, turbidity ideal harus mendekati 0–5 NTU. Air yang keruh dapat mengurangi penetrasi cahaya, menjadi indikator akumulasi limbah organik, dan menyebabkan stres pada ikan. Oleh karena itu, sistem otomatis akan mengaktifkan water pump atau sistem filtrasi ketika turbidity melebihi ambang batas.")
	w.p("")

	w.h2("Mikrokontroler ESP32")
	w.p("ESP32 adalah mikrokontroler berbasis Wi-Fi dan Bluetooth dual-core...")

	w.h2("PID Controller")
	w.p("PID (Proportional-Integral-Derivative) Controller adalah metode kendali umpan balik...")
	w.p("Rumus dasar: u(t) = Kₚ·e(t) + Kᵢ∫e(τ)dτ + K_d·de(t)/dt")
	w.figure(Figures[1].Name)
	w.caption(Figures[1].Caption)
	w.p("")

	w.h2("Fuzzy Logic Controller")
	w.p("Fuzzy Logic adalah pendekatan kendali berbasis logika linguistik...")
	w.figure(Figures[2].Name)
	w.caption(Figures[2].Caption)
	w.p("")

	w.h2("Aktuator: Heater dan Water Pump")
	w.p("1. Heater (Pemanas Air): Heater 50W digunakan untuk meningkatkan suhu air...\n2. Water Pump (Pompa Air): Water pump 12V berfungsi untuk mengalirkan air bersih dari reservoir atau mengaktifkan sistem filtrasi ketika sensor turbidity AB147 mendeteksi kekeruhan di atas ambang batas (misalnya >10 NTU).")
	w.p("")

	w.h2("Protokol MQTT")
	w.p("MQTT adalah protokol komunikasi ringan berbasis publish-subscribe...")

	w.h2("Parameter Evaluasi Sistem Kendali")
	w.p("Untuk membandingkan performa PID Controller dan Fuzzy Logic secara objektif, tiga parameter teknis utama digunakan:\n1. Overshoot\n2. Steady-State Error\n3. Settling Time")
	w.figure(Figures[3].Name)
	w.caption(Figures[3].Caption)

	w.h2("1.3 Rumusan Masalah")
	w.p("1. Bagaimana merancang sistem pengontrol kualitas air dalam akuarium dengan menerapkan PID Controller dan Fuzzy Logic?\n2. Bagaimana perbandingan performa antara PID Controller dan Fuzzy Logic dalam memonitoring kualitas air akuarium berdasarkan parameter overshoot, steady-state error, dan settling time?")

	w.h2("1.4 Tujuan Penelitian")
	w.p("1. Merancang dan membangun sistem monitoring kualitas air pada akuarium dengan menerapkan PID Controller dan Fuzzy Logic.\n2. Menunjukkan perbandingan performa antara PID Controller dan Fuzzy Logic dalam memonitoring kualitas air akuarium berdasarkan parameter teknis: overshoot, steady-state error, dan settling time.")

	w.h2("1.5 Manfaat Penelitian")
	w.p("1. Menjadi acuan dalam merancang sistem monitoring kualitas air akuarium secara real-time berbasis IoT.\n2. Membantu pengguna dalam menentukan metode kontrol yang paling optimal.\n3. Memberikan kontribusi ilmiah dalam penerapan metode kendali cerdas pada sistem IoT bidang akuakultur.")

	w.h2("1.6 Ruang Lingkup")
	w.p("1. Sistem hanya mengontrol dua parameter utama: suhu dan kekeruhan (turbidity) air.\n2. Sensor yang digunakan: DS18B20 (suhu) dan AB147 (turbidity).\n3. Mikrokontroler: ESP32.\n4. Aktuator: heater (untuk suhu) dan water pump (untuk turbidity).\n5. Visualisasi data dilakukan melalui website.\n6. Komunikasi antar node menggunakan protokol MQTT.\n7. Parameter evaluasi performa: overshoot, steady-state error, dan settling time.\n8. Pengujian dilakukan di lingkungan laboratorium.")

	w.h1("BAB II – METODOLOGI PENELITIAN")

	w.h2("2.1 Waktu dan Lokasi Penelitian")
	w.p("Penelitian ini dilaksanakan mulai November 2024 hingga Oktober 2025 di Laboratorium Ubiquitous Cloud Computing...")

	w.h2("2.2 Instrumen Penelitian")
	w.p("Tabel 2.1 Spesifikasi Perangkat Keras")
	w.p("- Mikrokontroler: ESP32 DevKit V1\n- Sensor Suhu: DS18B20\n- Sensor Turbidity: AB147\n- Aktuator: Heater 50W, Water Pump 12V")

	w.p("Tabel 2.2 Spesifikasi Perangkat Lunak")
	w.p("- OS: Windows 11\n- Bahasa: C++, Python, JavaScript\n- Library: OneWire, DallasTemperature, PubSubClient, scikit-fuzzy")

	w.h2("2.3 Tahapan Penelitian")
	w.p("1. Studi Literatur\n2. Analisis Kebutuhan\n3. Perancangan Sistem\n4. Implementasi Sistem\n5. Pengujian dan Pengambilan Data\n6. Analisis Performa\n7. Kesimpulan dan Dokumentasi")

	w.h2("2.4 Teknik Pengumpulan Data")
	w.p("Data dikumpulkan melalui sensor node (suhu & turbidity setiap 5 detik), aktuator node, server (MySQL), dan website (grafik real-time).")

	w.h2("2.5 Perancangan Sistem")
	w.p("Sistem terdiri dari tiga lapisan: Edge (ESP32 + sensor/aktuator), Network (Wi-Fi → MQTT), Application (Flask + website).")

	w.h2("2.6 Implementasi Sistem")
	w.p("PID: Kp=25, Ki=1.5, Kd=4\nFuzzy: input error & delta error, membership triangular, inferensi Mamdani, defuzzifikasi centroid.")

	w.h2("2.7 Evaluasi Sistem")
	w.p("Evaluasi berdasarkan overshoot, steady-state error, settling time. Pengujian: gangguan suhu (es) dan turbidity (partikel), 5 kali ulangan.")

	w.h1("BAB III – HASIL DAN PEMBAHASAN")

	w.h2("3.1 Hasil Penelitian")
	w.p("Sistem berhasil memantau suhu dan turbidity secara real-time. Arsitektur: ESP32 → MQTT → Flask → Website.")

	w.h2("3.1.4 Hasil Pengujian Respons Sistem")
	w.p("Pengujian gangguan suhu (es → 24°C) dan turbidity (partikel → 50 NTU):")
	w.p("- PID: overshoot ~3.5% (suhu), ~5% (turbidity), settling time ~75 detik")
	w.p("- Fuzzy: overshoot ~0.8% (suhu), ~1.2% (turbidity), settling time ~105 detik")

	w.h2("3.1.5 Data Kuantitatif Performa")
	w.p("Tabel Performa:")
	w.p("Parameter          | PID Controller | Fuzzy Logic")
	w.p("Overshoot (%)      | 3.5% / 5%      | 0.8% / 1.2%")
	w.p("Steady-state error | ±0.25°C / ±2 NTU | ±0.10°C / ±0.5 NTU")
	w.p("Settling time (s)  | 75             | 105")

	w.h2("3.2 Pembahasan")
	w.p("Fuzzy Logic lebih stabil dan akurat, cocok untuk akuarium rumahan. PID lebih cepat, cocok untuk sistem terkontrol.")

	w.h1("BAB IV – KESIMPULAN DAN SARAN")

	w.h2("4.1 Kesimpulan")
	w.p("1. Sistem berhasil dibangun dan berfungsi real-time.\n2. Fuzzy Logic: stabil, akurat, aman.\n3. PID Controller: cepat, agresif.\n4. Dashboard web mendukung perbandingan dinamis.")

	w.h2("4.2 Saran")
	w.p("1. Integrasi kalibrasi otomatis sensor AB147.\n2. Penyesuaian parameter PID via MQTT.\n3. Tambah notifikasi (Telegram/email).\n4. Pengujian jangka panjang di akuarium nyata.")

	return w.err
}

// Compose assembles the thesis with the styling and figure settings of cfg.
func Compose(cfg config.Config) (*document.Builder, error) {
	b := document.New(domain.Style{
		FontName:   cfg.Document.FontName,
		FontSizePt: cfg.Document.FontSizePt,
	})
	err := Assemble(b, Options{
		FiguresDir:     cfg.Figures.Dir,
		PictureWidthIn: cfg.Document.PictureWidthIn,
	})
	if err != nil {
		return nil, err
	}
	return b, nil
}
